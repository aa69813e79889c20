package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// 错误类型定义
var (
	// ErrNoFetchSession 无法建立获取会话 (浏览器启动失败等)
	// 这是唯一导致整个流水线中止的失败类型
	ErrNoFetchSession = errors.New("无法建立页面获取会话")
)

// FetchError 页面获取错误 (超时/非成功状态码/网络错误)
// 调用方将其视为跳过当前分支,不中止整体爬取
type FetchError struct {
	// URL 失败的URL
	URL string

	// StatusCode HTTP状态码 (网络错误时为0)
	StatusCode int

	// Err 底层错误
	Err error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("获取页面失败 [%s]: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("获取页面失败 [%s]: %v", e.URL, e.Err)
}

// Unwrap 支持errors.Is/As
func (e *FetchError) Unwrap() error {
	return e.Err
}

// PageFetcher 页面获取器接口
// 两种可互换策略: 浏览器渲染(DynamicFetcher)和直接HTTP(StaticFetcher)
// 策略由配置决定,单次爬取全程使用同一会话
type PageFetcher interface {
	// Open 建立获取会话 (浏览器实例或HTTP客户端)
	// 失败时返回包装了ErrNoFetchSession的错误
	Open() error

	// Fetch 获取URL的原始HTML
	// 失败时返回*FetchError
	Fetch(ctx context.Context, pageURL string) (string, error)

	// Close 关闭会话,释放资源
	Close() error
}

// StaticFetcher 静态页面获取器 (基于Colly,不执行页面JavaScript)
type StaticFetcher struct {
	// 基础collector (每次Fetch克隆一份,保证并发安全)
	base *colly.Collector

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 单次请求超时
	timeout time.Duration
}

// NewStaticFetcher 创建静态获取器
func NewStaticFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *StaticFetcher {
	return &StaticFetcher{
		headerProvider: headerProvider,
		timeout:        time.Duration(config.WaitTime) * time.Second,
	}
}

// Open 初始化collector和HTTP客户端
// 禁用TLS证书验证,允许访问自签名/过期证书的站点
func (sf *StaticFetcher) Open() error {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: sf.timeout,
	}

	c := colly.NewCollector(
		// 去重由URLFrontier统一负责,collector不做访问历史检查
		colly.AllowURLRevisit(),
	)
	c.SetClient(httpClient)
	c.WithTransport(httpClient.Transport)
	c.SetRequestTimeout(sf.timeout)

	sf.base = c
	utils.Debugf("静态获取器已初始化: 超时=%ds, TLS证书验证已禁用", int(sf.timeout.Seconds()))
	return nil
}

// Fetch 获取单个页面
// 克隆基础collector并注册一次性回调,Visit为同步调用
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if sf.base == nil {
		return "", fmt.Errorf("获取器未初始化: %w", ErrNoFetchSession)
	}
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)

	c := sf.base.Clone()

	c.OnRequest(func(r *colly.Request) {
		// 应用自定义HTTP头部
		if sf.headerProvider != nil {
			headers, err := sf.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode

		// 手动设置了Accept-Encoding时传输层不会自动解压,按响应头处理
		content, err := decompressResponse(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			utils.Warnf("解压响应失败 [%s]: %v", pageURL, err)
			content = r.Body
		}
		body = content
	})

	c.OnError(func(r *colly.Response, err error) {
		code := 0
		if r != nil {
			code = r.StatusCode
		}
		fetchErr = &FetchError{URL: pageURL, StatusCode: code, Err: err}
	})

	visitErr := c.Visit(pageURL)
	c.Wait()

	// OnError已捕获状态码时优先返回更完整的错误
	if fetchErr != nil {
		return "", fetchErr
	}
	if visitErr != nil {
		var fe *FetchError
		if errors.As(visitErr, &fe) {
			return "", fe
		}
		return "", &FetchError{URL: pageURL, Err: visitErr}
	}
	if statusCode == 0 {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("未收到响应")}
	}

	utils.Debugf("获取成功 [%s]: HTTP %d, %d bytes", pageURL, statusCode, len(body))
	return string(body), nil
}

// Close 关闭会话
// 静态获取器无需释放持久资源
func (sf *StaticFetcher) Close() error {
	sf.base = nil
	return nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
