package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// PageParser 页面解析能力 (外部协作者接口,可插拔)
// 实现不得因字段缺失或页面畸形而报错: 缺失字段以空值表示
type PageParser interface {
	// ParseProfile 将档案页HTML解析为档案记录 (尽力而为的部分记录)
	ParseProfile(html string, sourceURL string) *models.ProfileRecord

	// ExtractLinks 提取页面中所有锚链接,相对链接已解析为绝对URL
	ExtractLinks(html string, baseURL string) []string
}

// PageClassifier 页面分类策略
// 判断URL是否指向档案页;默认实现为路径子串匹配,可替换为更严格的分类器
type PageClassifier func(pageURL string) bool

// PathContainsClassifier 返回基于路径子串匹配的分类器
func PathContainsClassifier(token string) PageClassifier {
	token = strings.ToLower(token)
	return func(pageURL string) bool {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return false
		}
		return strings.Contains(strings.ToLower(parsed.Path), token)
	}
}

// Crawler 档案页爬取器
// 职责: 驱动深度受限、去重的链接遍历,发现并解析档案页
// 遍历为单工作线程的显式工作清单(栈),输出保持链接发现顺序,结果可复现
type Crawler struct {
	fetcher    PageFetcher
	parser     PageParser
	classifier PageClassifier
	maxDepth   int

	// 统计信息
	stats models.PipelineStats
	mu    sync.Mutex
}

// NewCrawler 创建爬取器
func NewCrawler(fetcher PageFetcher, parser PageParser, classifier PageClassifier, maxDepth int) *Crawler {
	return &Crawler{
		fetcher:    fetcher,
		parser:     parser,
		classifier: classifier,
		maxDepth:   maxDepth,
	}
}

// Crawl 从单个种子URL开始爬取,返回发现顺序的档案记录列表
// 会话生命周期: 遍历前建立,遍历后无论成败都关闭
func (c *Crawler) Crawl(ctx context.Context, seedURL string) ([]*models.ProfileRecord, error) {
	return c.CrawlAll(ctx, []string{seedURL})
}

// CrawlAll 依次遍历多个种子URL (地区过滤场景)
// 所有种子共享同一个frontier和同一个获取会话,跨种子去重
func (c *Crawler) CrawlAll(ctx context.Context, seedURLs []string) ([]*models.ProfileRecord, error) {
	if err := c.fetcher.Open(); err != nil {
		return nil, fmt.Errorf("建立获取会话失败: %w", err)
	}
	defer func() {
		if err := c.fetcher.Close(); err != nil {
			utils.Warnf("关闭获取会话失败: %v", err)
		}
	}()

	frontier := NewURLFrontier(c.maxDepth)
	profiles := make([]*models.ProfileRecord, 0)

	for _, seed := range seedURLs {
		if err := models.ValidateURL(seed); err != nil {
			utils.Warnf("跳过无效种子URL [%s]: %v", seed, err)
			continue
		}
		found := c.traverse(ctx, frontier, seed)
		profiles = append(profiles, found...)
	}

	c.mu.Lock()
	c.stats.VisitedURLs = frontier.VisitedCount()
	c.stats.ProfilesFound = len(profiles)
	c.mu.Unlock()

	utils.Infof("✅ 爬取完成: 访问 %d 个URL, 发现 %d 个档案", frontier.VisitedCount(), len(profiles))
	return profiles, nil
}

// traverse 从单个种子执行深度优先遍历
// 显式栈替代调用栈递归;子链接逆序入栈,保证按文档顺序优先展开
// 终止性: frontier单调增长且URL在入栈时即被承诺,深度受maxDepth约束
func (c *Crawler) traverse(ctx context.Context, frontier *URLFrontier, seedURL string) []*models.ProfileRecord {
	origin := originOf(seedURL)
	profiles := make([]*models.ProfileRecord, 0)

	if !frontier.ShouldVisit(seedURL, 0) {
		utils.Debugf("种子URL已访问过,跳过: %s", seedURL)
		return profiles
	}

	stack := []models.URLItem{{URL: seedURL, Depth: 0}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			utils.Warnf("遍历被取消: %v", err)
			break
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		utils.Debugf("访问页面: %s (深度: %d)", item.URL, item.Depth)

		html, err := c.fetcher.Fetch(ctx, item.URL)
		if err != nil {
			// 获取失败只终止当前分支,兄弟分支继续
			var fe *FetchError
			if errors.As(err, &fe) {
				utils.Warnf("页面获取失败,跳过分支 [%s] (深度=%d): %v", item.URL, item.Depth, err)
				c.mu.Lock()
				c.stats.FetchFailures++
				c.mu.Unlock()
				continue
			}
			utils.Errorf("页面获取异常 [%s]: %v", item.URL, err)
			c.mu.Lock()
			c.stats.FetchFailures++
			c.mu.Unlock()
			continue
		}

		// 档案页分类与分支扩展相互独立
		if c.classifier(item.URL) {
			record := c.parser.ParseProfile(html, item.URL)
			if record != nil {
				profiles = append(profiles, record)
				utils.Infof("📇 发现档案: %s (深度=%d)", item.URL, item.Depth)
			}
		}

		links := c.parser.ExtractLinks(html, item.URL)

		// 逆序入栈 → 出栈时恢复文档顺序
		for i := len(links) - 1; i >= 0; i-- {
			link := links[i]
			if originOf(link) != origin {
				utils.Debugf("跳过跨源链接: %s (种子源: %s)", link, origin)
				continue
			}
			// 入栈即承诺访问: 检查+插入为单一原子步骤,同一页面绝不获取两次
			if !frontier.ShouldVisit(link, item.Depth+1) {
				continue
			}
			stack = append(stack, models.URLItem{URL: link, Depth: item.Depth + 1, SourceURL: item.URL})
		}
	}

	return profiles
}

// GetStats 获取统计信息
func (c *Crawler) GetStats() models.PipelineStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// originOf 返回URL的源 (scheme+host,小写)
func originOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)
}
