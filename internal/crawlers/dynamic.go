package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// DynamicFetcher 动态页面获取器 (基于go-rod无头浏览器,执行页面JavaScript)
// 单次爬取拥有一个浏览器实例: Open启动,Close关闭,每次Fetch使用独立标签页
type DynamicFetcher struct {
	browser *rod.Browser

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 页面根元素等待超时
	waitTimeout time.Duration

	// 浏览器无头模式
	headless bool
}

// NewDynamicFetcher 创建动态获取器
func NewDynamicFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *DynamicFetcher {
	return &DynamicFetcher{
		headerProvider: headerProvider,
		waitTimeout:    time.Duration(config.WaitTime) * time.Second,
		headless:       config.Headless,
	}
}

// Open 启动并连接浏览器
// 失败属于PipelineFatalError: 包装ErrNoFetchSession返回,由调用方中止整个运行
func (df *DynamicFetcher) Open() error {
	l := launcher.New().Headless(df.headless)

	// 允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")
	l = l.Set("no-sandbox")
	l = l.Set("disable-dev-shm-usage")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: 启动浏览器失败: %v", ErrNoFetchSession, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("%w: 连接浏览器失败: %v", ErrNoFetchSession, err)
	}

	df.browser = browser
	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, df.headless)
	return nil
}

// Fetch 在新标签页中加载页面并返回渲染后的HTML
// 等待body元素出现,受waitTimeout约束;任何失败返回*FetchError
func (df *DynamicFetcher) Fetch(ctx context.Context, pageURL string) (html string, err error) {
	if df.browser == nil {
		return "", fmt.Errorf("获取器未初始化: %w", ErrNoFetchSession)
	}

	// rod在浏览器异常时可能panic,转换为获取错误
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("页面获取panic [%s]: %v", pageURL, r)
			err = &FetchError{URL: pageURL, Err: fmt.Errorf("浏览器操作panic: %v", r)}
		}
	}()

	page, pageErr := df.browser.Page(proto.TargetCreateTarget{})
	if pageErr != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("创建标签页失败: %w", pageErr)}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			utils.Debugf("关闭标签页失败 [%s]: %v", pageURL, closeErr)
		}
	}()

	page = page.Context(ctx)

	// 应用自定义HTTP头部
	if df.headerProvider != nil {
		if headers, headerErr := df.headerProvider.GetHeaders(); headerErr != nil {
			utils.Warnf("获取HTTP头部失败: %v", headerErr)
		} else {
			pairs := make([]string, 0, len(headers)*2)
			for name, values := range headers {
				if len(values) > 0 {
					pairs = append(pairs, name, values[0])
				}
			}
			if len(pairs) > 0 {
				if _, headerErr := page.SetExtraHeaders(pairs); headerErr != nil {
					utils.Warnf("设置请求头部失败 [%s]: %v", pageURL, headerErr)
				}
			}
		}
	}

	if navErr := page.Timeout(df.waitTimeout).Navigate(pageURL); navErr != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("导航失败: %w", navErr)}
	}

	// 等待根内容元素出现 (固定超时,超时视为该URL失败)
	if _, waitErr := page.Timeout(df.waitTimeout).Element("body"); waitErr != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("等待页面内容超时: %w", waitErr)}
	}

	content, htmlErr := page.HTML()
	if htmlErr != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("读取页面HTML失败: %w", htmlErr)}
	}

	utils.Debugf("页面渲染完成 [%s]: %d bytes", pageURL, len(content))
	return content, nil
}

// Close 关闭浏览器
func (df *DynamicFetcher) Close() error {
	if df.browser == nil {
		return nil
	}
	err := df.browser.Close()
	df.browser = nil
	utils.Debugf("浏览器已关闭")
	return err
}

// NewFetcher 根据配置选择获取策略
// 策略是配置项,不做按URL的运行时切换
func NewFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) PageFetcher {
	if config.Mode == models.ModeBrowser {
		return NewDynamicFetcher(config, headerProvider)
	}
	return NewStaticFetcher(config, headerProvider)
}
