package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ihsaland/datasnatch/internal/models"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// 配置文件缺失时回退到默认值
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Crawl.Depth != 2 {
		t.Errorf("默认深度 = %d, want 2", config.Crawl.Depth)
	}
	if config.Crawl.Mode != models.ModeBrowser {
		t.Errorf("默认策略 = %s, want browser", config.Crawl.Mode)
	}
	if config.Crawl.ProfileToken != "profile" {
		t.Errorf("默认特征子串 = %s, want profile", config.Crawl.ProfileToken)
	}
	if config.Logging.Level != "info" {
		t.Errorf("默认日志级别 = %s, want info", config.Logging.Level)
	}
	if config.Output.BaseDir != "data" {
		t.Errorf("默认输出目录 = %s, want data", config.Output.BaseDir)
	}
	if config.Crawl.MaxWorkersLimit != 16 {
		t.Errorf("资源配置未同步到爬取配置: MaxWorkersLimit = %d", config.Crawl.MaxWorkersLimit)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.yaml")

	content := `
crawl:
  depth: 4
  mode: http
  profile_token: listing
headers:
  X-Custom: "from-config"
  accept-language: "en-US"
resource:
  max_workers_limit: 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Crawl.Depth != 4 {
		t.Errorf("Depth = %d, want 4", config.Crawl.Depth)
	}
	if config.Crawl.Mode != models.ModeHTTP {
		t.Errorf("Mode = %s, want http", config.Crawl.Mode)
	}
	if config.Crawl.ProfileToken != "listing" {
		t.Errorf("ProfileToken = %s, want listing", config.Crawl.ProfileToken)
	}
	// viper小写化的头部键应还原为规范形式
	if config.Headers["X-Custom"] != "from-config" {
		t.Errorf("Headers = %v, 应包含X-Custom", config.Headers)
	}
	if config.Headers["Accept-Language"] != "en-US" {
		t.Errorf("Headers = %v, 小写键应规范化为Accept-Language", config.Headers)
	}
	if config.Crawl.MaxWorkersLimit != 8 {
		t.Errorf("MaxWorkersLimit = %d, want 8", config.Crawl.MaxWorkersLimit)
	}
	// 未覆盖的键保持默认
	if config.Crawl.WaitTime != 30 {
		t.Errorf("WaitTime = %d, want 30", config.Crawl.WaitTime)
	}
}

func TestConfig_MergeCLIFlags(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	config.MergeCLIFlags(3, 15, 8, "http", false, true)

	if config.Crawl.Depth != 3 {
		t.Errorf("Depth = %d, want 3", config.Crawl.Depth)
	}
	if config.Crawl.WaitTime != 15 {
		t.Errorf("WaitTime = %d, want 15", config.Crawl.WaitTime)
	}
	if config.Crawl.MaxWorkers != 8 {
		t.Errorf("MaxWorkers = %d, want 8", config.Crawl.MaxWorkers)
	}
	if config.Crawl.Mode != models.ModeHTTP {
		t.Errorf("Mode = %s, want http", config.Crawl.Mode)
	}
	if config.Crawl.Headless {
		t.Error("Headless应被命令行覆盖为false")
	}
	if !config.Crawl.UseAPIs {
		t.Error("UseAPIs应被命令行启用")
	}

	// 深度0是合法的命令行值 (仅爬种子页)
	config.MergeCLIFlags(0, 0, 0, "", true, false)
	if config.Crawl.Depth != 0 {
		t.Errorf("深度0应被接受, 实际 %d", config.Crawl.Depth)
	}
	if config.Crawl.Mode != models.ModeHTTP {
		t.Error("空mode参数不应覆盖既有配置")
	}
	if !config.Crawl.UseAPIs {
		t.Error("use-apis=false不应关闭配置文件启用的API")
	}
}
