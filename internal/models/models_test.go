package models

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/profile/123", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCrawlConfig_Validate(t *testing.T) {
	valid := CrawlConfig{
		Depth:        2,
		WaitTime:     10,
		MaxWorkers:   4,
		Mode:         ModeHTTP,
		ProfileToken: "profile",
	}

	tests := []struct {
		name    string
		mutate  func(c *CrawlConfig)
		wantErr bool
	}{
		{"有效配置", func(c *CrawlConfig) {}, false},
		{"深度为0有效(仅种子页)", func(c *CrawlConfig) { c.Depth = 0 }, false},
		{"深度为负", func(c *CrawlConfig) { c.Depth = -1 }, true},
		{"深度过大", func(c *CrawlConfig) { c.Depth = 11 }, true},
		{"等待时间过大", func(c *CrawlConfig) { c.WaitTime = 121 }, true},
		{"并发数为0", func(c *CrawlConfig) { c.MaxWorkers = 0 }, true},
		{"无效获取策略", func(c *CrawlConfig) { c.Mode = "selenium" }, true},
		{"浏览器策略有效", func(c *CrawlConfig) { c.Mode = ModeBrowser }, false},
		{"特征子串为空", func(c *CrawlConfig) { c.ProfileToken = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewScrapeTask(t *testing.T) {
	config := CrawlConfig{
		Depth:        2,
		WaitTime:     10,
		MaxWorkers:   4,
		Mode:         ModeHTTP,
		ProfileToken: "profile",
	}

	task, err := NewScrapeTask("https://example.com", nil, config)
	if err != nil {
		t.Fatalf("NewScrapeTask() error = %v", err)
	}

	if task.ID == "" {
		t.Error("任务ID不应为空")
	}
	if task.BaseURL != "https://example.com" {
		t.Errorf("BaseURL = %v, want %v", task.BaseURL, "https://example.com")
	}
	if task.Status != TaskStatusPending {
		t.Errorf("Status = %v, want %v", task.Status, TaskStatusPending)
	}
	if len(task.Regions) != 1 || task.Regions[0] != "all" {
		t.Errorf("空地区列表应默认为[all], 实际 %v", task.Regions)
	}

	if _, err := NewScrapeTask("ftp://example.com", nil, config); err == nil {
		t.Error("无效URL应返回错误")
	}
}

func TestScrapeTask_SeedURLs(t *testing.T) {
	config := CrawlConfig{
		Depth:        2,
		WaitTime:     10,
		MaxWorkers:   4,
		Mode:         ModeHTTP,
		ProfileToken: "profile",
	}

	tests := []struct {
		name    string
		baseURL string
		regions []string
		want    []string
	}{
		{"all地区使用基础URL", "https://example.com/listings", []string{"all"}, []string{"https://example.com/listings"}},
		{"地区嵌套在基础路径下", "https://example.com/listings", []string{"nevada"}, []string{"https://example.com/listings/nevada"}},
		{"末尾斜杠不产生双斜杠", "https://example.com/listings/", []string{"nevada"}, []string{"https://example.com/listings/nevada"}},
		{"多个地区", "https://example.com", []string{"nevada", "texas"}, []string{"https://example.com/nevada", "https://example.com/texas"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewScrapeTask(tt.baseURL, tt.regions, config)
			if err != nil {
				t.Fatalf("NewScrapeTask() error = %v", err)
			}
			seeds := task.SeedURLs()
			if len(seeds) != len(tt.want) {
				t.Fatalf("SeedURLs() 数量 = %d, want %d", len(seeds), len(tt.want))
			}
			for i := range seeds {
				if seeds[i] != tt.want[i] {
					t.Errorf("SeedURLs()[%d] = %v, want %v", i, seeds[i], tt.want[i])
				}
			}
		})
	}
}

func TestProfileRecord_Completeness(t *testing.T) {
	tests := []struct {
		name   string
		record ProfileRecord
		want   float64
	}{
		{"全空记录", ProfileRecord{}, 0.0},
		{"仅姓名", ProfileRecord{Name: "Jane"}, 0.25},
		{"姓名和电话", ProfileRecord{Name: "Jane", Phone: "+16502530000"}, 0.5},
		{
			"全部字段",
			ProfileRecord{Name: "Jane", Phone: "+16502530000", Location: "Las Vegas", Images: []string{"https://example.com/a.jpg"}},
			1.0,
		},
		{"年龄和消息不计入完整度", ProfileRecord{Age: 25, Message: "hello"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Completeness(); got != tt.want {
				t.Errorf("Completeness() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImageAnalysis_AverageQuality(t *testing.T) {
	tests := []struct {
		name     string
		analysis *ImageAnalysis
		want     float64
	}{
		{"nil分析结果", nil, 0},
		{"无图片", NewImageAnalysis(), 0},
		{"单张图片", &ImageAnalysis{ImageQuality: []float64{0.8}}, 0.8},
		{"多张图片取平均", &ImageAnalysis{ImageQuality: []float64{0.5, 1.0}}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.analysis.AverageQuality(); got != tt.want {
				t.Errorf("AverageQuality() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCliHeaders_Parse(t *testing.T) {
	headers, err := CliHeaders{"User-Agent: TestBot/1.0", "Accept-Language: en-US"}.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := headers.Get("User-Agent"); got != "TestBot/1.0" {
		t.Errorf("User-Agent = %v, want TestBot/1.0", got)
	}

	if _, err := (CliHeaders{"no-colon-here"}).Parse(); err == nil {
		t.Error("缺少冒号应返回错误")
	}
	if _, err := (CliHeaders{": value-only"}).Parse(); err == nil {
		t.Error("空头部名称应返回错误")
	}
}
