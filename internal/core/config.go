package core

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ihsaland/datasnatch/internal/models"
)

// Config 应用程序配置
type Config struct {
	Crawl     models.CrawlConfig `mapstructure:"crawl"`
	Providers ProvidersConfig    `mapstructure:"providers"`
	Logging   LoggingConfig      `mapstructure:"logging"`
	Output    OutputConfig       `mapstructure:"output"`
	Resource  ResourceConfig     `mapstructure:"resource"`

	// Headers 附加HTTP请求头部 (优先级低于命令行-H参数)
	Headers map[string]string `mapstructure:"headers"`
}

// ProvidersConfig 外部API提供者配置
// 密钥优先从环境变量读取 (GOOGLE_API_KEY等),配置文件作为兜底
// 密钥缺失时对应的提供者槽位保持禁用,即使--use-apis已开启
type ProvidersConfig struct {
	GoogleAPIKey   string `mapstructure:"google_api_key"`
	PhoneAPIKey    string `mapstructure:"phone_api_key"`
	LocationAPIKey string `mapstructure:"location_api_key"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// ResourceConfig 资源监控配置 (约束富化阶段的worker数)
type ResourceConfig struct {
	SafetyReserveMemory int `mapstructure:"safety_reserve_memory"` // 预留内存(MB)
	SafetyThreshold     int `mapstructure:"safety_threshold"`      // 内存告警阈值(MB)
	CPULoadThreshold    int `mapstructure:"cpu_load_threshold"`    // CPU负载阈值(%)
	MaxWorkersLimit     int `mapstructure:"max_workers_limit"`     // worker数硬上限
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".datasnatch"))
		}
	}

	setDefaults(v)

	// 环境变量覆盖API密钥
	_ = v.BindEnv("providers.google_api_key", "GOOGLE_API_KEY")
	_ = v.BindEnv("providers.phone_api_key", "PHONE_API_KEY")
	_ = v.BindEnv("providers.location_api_key", "LOCATION_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// viper将map键统一转为小写,头部名称还原为规范形式 (X-Custom而非x-custom)
	if len(config.Headers) > 0 {
		canonical := make(map[string]string, len(config.Headers))
		for name, value := range config.Headers {
			canonical[http.CanonicalHeaderKey(name)] = value
		}
		config.Headers = canonical
	}

	// 资源配置同步到爬取配置,富化worker池据此计算预算
	config.Crawl.SafetyReserveMemory = config.Resource.SafetyReserveMemory
	config.Crawl.SafetyThreshold = config.Resource.SafetyThreshold
	config.Crawl.CPULoadThreshold = config.Resource.CPULoadThreshold
	config.Crawl.MaxWorkersLimit = config.Resource.MaxWorkersLimit

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.depth", 2)
	v.SetDefault("crawl.wait_time", 30)
	v.SetDefault("crawl.max_workers", 4)
	v.SetDefault("crawl.mode", "browser")
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.use_apis", false)
	v.SetDefault("crawl.cascade_file", "configs/facefinder")
	v.SetDefault("crawl.profile_token", "profile")

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "data")

	// 资源配置默认值
	v.SetDefault("resource.safety_reserve_memory", 1024)
	v.SetDefault("resource.safety_threshold", 500)
	v.SetDefault("resource.cpu_load_threshold", 80)
	v.SetDefault("resource.max_workers_limit", 16)
}

// GetCrawlConfig 从配置中提取爬取配置
func (c *Config) GetCrawlConfig() models.CrawlConfig {
	return c.Crawl
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(depth int, waitTime int, maxWorkers int, mode string, headless bool, useAPIs bool) {
	if depth >= 0 {
		c.Crawl.Depth = depth
	}
	if waitTime > 0 {
		c.Crawl.WaitTime = waitTime
	}
	if maxWorkers > 0 {
		c.Crawl.MaxWorkers = maxWorkers
	}
	if mode != "" {
		c.Crawl.Mode = models.FetchMode(mode)
	}
	c.Crawl.Headless = headless
	if useAPIs {
		c.Crawl.UseAPIs = true
	}
}
