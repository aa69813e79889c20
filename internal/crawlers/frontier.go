package crawlers

import (
	"net/url"
	"strings"
	"sync"
)

// URLFrontier URL访问前线管理器
// 职责: 记录已承诺访问的URL,统一实施深度上限,防止重复爬取
// 状态仅在单次爬取调用内有效,不跨运行持久化
type URLFrontier struct {
	// 已承诺访问的URL集合 (规范化形式)
	visited map[string]bool

	// 保护visited的互斥锁
	mu sync.Mutex

	// 最大爬取深度 (种子URL为深度0)
	maxDepth int
}

// NewURLFrontier 创建URL前线实例
func NewURLFrontier(maxDepth int) *URLFrontier {
	return &URLFrontier{
		visited:  make(map[string]bool),
		maxDepth: maxDepth,
	}
}

// NormalizeURL 规范化URL用于去重比较
// 规则: 仅保留scheme+host+path,剥离fragment和查询参数,统一去除末尾斜杠
// 解析失败时原样返回,保证同一原始字符串仍然只访问一次
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := parsed.EscapedPath()
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "/" {
		path = ""
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host) + path
}

// ShouldVisit 判断是否应该访问URL,并在允许时原子性地承诺访问
// 返回false的情况(无副作用):
//   - depth超过最大深度
//   - URL(规范化后)已在visited集合中
//
// 返回true时URL已被加入visited集合
// 检查+插入是单一原子步骤,并发分支解析到同一页面时只有一个会得到true
func (f *URLFrontier) ShouldVisit(rawURL string, depth int) bool {
	if depth > f.maxDepth {
		return false
	}

	normalized := NormalizeURL(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited[normalized] {
		return false
	}
	f.visited[normalized] = true
	return true
}

// VisitedCount 返回已承诺访问的URL数量
func (f *URLFrontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// MaxDepth 返回深度上限
func (f *URLFrontier) MaxDepth() int {
	return f.maxDepth
}
