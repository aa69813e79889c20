// Package crawlers 提供档案页发现与获取功能
//
// # 概述
//
// crawlers包实现了深度受限、去重的档案页遍历,支持静态(Colly)和浏览器(go-rod)两种获取模式。
// 核心特性包括:显式工作清单遍历、URL规范化去重、同源过滤、可插拔的页面分类与解析。
//
// # 核心组件
//
// ## Crawler
//
// 单工作线程的深度优先遍历器。子链接逆序入栈,输出严格保持链接发现顺序,
// 同一站点快照下结果可复现。获取失败只终止当前分支,兄弟分支继续。
//
//	crawler := NewCrawler(fetcher, parser, PathContainsClassifier("profile"), maxDepth)
//	profiles, err := crawler.Crawl(ctx, "https://example.com/listings")
//
// ## URLFrontier
//
// 并发安全的已访问URL集合,统一实施深度上限。
// ShouldVisit的检查+插入是单一原子步骤,同一页面绝不获取两次。
// URL以规范化形式比较:剥离fragment和查询参数,统一末尾斜杠。
//
//	frontier := NewURLFrontier(maxDepth)
//	if frontier.ShouldVisit(url, depth) { /* 已承诺访问 */ }
//
// ## PageFetcher (StaticFetcher / DynamicFetcher)
//
// 页面获取策略接口。StaticFetcher基于Colly直接发起HTTP请求,
// 支持gzip/deflate/brotli解压;DynamicFetcher基于go-rod无头浏览器,
// 执行页面JavaScript后返回渲染结果。策略由配置决定,不做运行时切换。
//
//	fetcher := NewFetcher(config, headerProvider)
//	if err := fetcher.Open(); err != nil { /* 致命: 无法建立会话 */ }
//	defer fetcher.Close()
//	html, err := fetcher.Fetch(ctx, url)
//
// ## ResourceMonitor (资源监控器)
//
// 监控系统内存和CPU,为充实阶段的并发工作池计算安全的worker数上限。
//
//	monitor := NewResourceMonitor(ResourceMonitorConfig{
//	    SafetyReserveMemory: 1024 * 1024 * 1024, // 1GB
//	    SafetyThreshold:     500 * 1024 * 1024,  // 500MB
//	    CPULoadThreshold:    80,
//	    MaxWorkersLimit:     16,
//	})
//	monitor.StartMonitoring(1 * time.Second)
//	defer monitor.StopMonitoring()
//
//	workers := monitor.CalculateMaxWorkers()
//
// # 错误处理
//
//   - 会话建立失败: Open返回包装ErrNoFetchSession的错误,整个运行中止
//   - 单页获取失败: Fetch返回*FetchError,调用方跳过该分支继续遍历
//   - 无效种子URL: CrawlAll记录警告并跳过,不影响其他种子
//
// # 并发安全
//
//   - URLFrontier: sync.Mutex保护的原子检查+插入
//   - ResourceMonitor: sync.RWMutex + 后台采样goroutine
//   - StaticFetcher: 每次Fetch克隆collector,回调状态互不干扰
package crawlers
