package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// 档案字段提取的正则
var (
	phonePattern = regexp.MustCompile(`\+?\d[\d\s-]*`)
	agePattern   = regexp.MustCompile(`\d+`)
)

// ListingParser 分类广告档案页解析器
// 字段提取是尽力而为的: 缺失或畸形的字段以零值表示,解析永不失败
// 选择器约定遵循目标站点的档案页结构 (h1.profile-name, div.phone-number 等)
type ListingParser struct{}

// NewListingParser 创建档案页解析器
func NewListingParser() *ListingParser {
	return &ListingParser{}
}

// ParseProfile 将档案页HTML解析为档案记录
// 返回的记录总是携带来源URL和抓取时间;HTML完全无法解析时返回仅含元数据的空记录
func (p *ListingParser) ParseProfile(htmlContent string, sourceURL string) *models.ProfileRecord {
	record := models.NewProfileRecord(sourceURL)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		utils.Warnf("解析档案页HTML失败 [%s]: %v", sourceURL, err)
		return record
	}

	record.Name = strings.TrimSpace(doc.Find("h1.profile-name").First().Text())
	record.Phone = extractPhone(doc)
	record.Location = strings.TrimSpace(doc.Find("div.location").First().Text())
	record.Age = extractAge(doc)
	record.PostedDate = strings.TrimSpace(doc.Find("div.date-posted").First().Text())
	record.Message = strings.TrimSpace(doc.Find("div.message").First().Text())
	record.Images = extractImages(doc, sourceURL)

	utils.Debugf("档案解析完成 [%s]: 姓名=%q, 图片=%d张", sourceURL, record.Name, len(record.Images))
	return record
}

// extractPhone 从电话区块中提取号码串
func extractPhone(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find("div.phone-number").First().Text())
	if text == "" {
		return ""
	}
	match := phonePattern.FindString(text)
	return strings.TrimSpace(match)
}

// extractAge 从年龄区块中提取首个数字串
func extractAge(doc *goquery.Document) int {
	text := doc.Find("div.age").First().Text()
	match := agePattern.FindString(text)
	if match == "" {
		return 0
	}
	age, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return age
}

// extractImages 收集档案图片URL,相对路径解析为绝对URL
func extractImages(doc *goquery.Document, sourceURL string) []string {
	base, baseErr := url.Parse(sourceURL)

	images := make([]string, 0)
	doc.Find("img.profile-image").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			return
		}
		src = strings.TrimSpace(src)

		if baseErr == nil {
			if ref, err := url.Parse(src); err == nil {
				src = base.ResolveReference(ref).String()
			}
		}
		images = append(images, src)
	})
	return images
}

// ExtractLinks 提取页面中所有锚链接,按文档顺序返回绝对URL
// 相对链接解析到baseURL;非http(s)协议(mailto、javascript等)被丢弃
// 不做去重和深度过滤,这些由遍历层的frontier统一负责
func (p *ListingParser) ExtractLinks(htmlContent string, baseURL string) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		utils.Warnf("解析页面链接失败 [%s]: %v", baseURL, err)
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		utils.Warnf("解析baseURL失败 [%s]: %v", baseURL, err)
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					linkURL, err := url.Parse(strings.TrimSpace(attr.Val))
					if err != nil {
						break
					}
					absolute := base.ResolveReference(linkURL)
					if absolute.Scheme == "http" || absolute.Scheme == "https" {
						links = append(links, absolute.String())
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}
