package models

// URLItem 表示遍历工作清单中的一个URL项
// 用途:
//   - 在工作清单(显式栈)中传递URL和深度信息
//   - 替代隐式调用栈递归,深度上限由frontier统一控制
type URLItem struct {
	// URL 完整的URL字符串
	URL string

	// Depth URL的深度层级
	//   - 0: 种子URL
	//   - 1: 从种子页面发现的链接
	//   - 2: 从深度1页面发现的链接
	//   - 以此类推...
	Depth int

	// SourceURL 发现此URL的源页面(可选,用于日志定位)
	SourceURL string
}
