package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
)

// FetchMode 页面获取策略
type FetchMode string

const (
	ModeBrowser FetchMode = "browser" // 无头浏览器 (go-rod, 执行页面JS)
	ModeHTTP    FetchMode = "http"    // 直接HTTP请求 (colly, 不执行JS)
)

// PipelineStats 流水线统计
type PipelineStats struct {
	VisitedURLs      int     `json:"visited_urls"`      // 已访问URL数
	FetchFailures    int     `json:"fetch_failures"`    // 页面获取失败数
	ProfilesFound    int     `json:"profiles_found"`    // 发现档案数
	ProfilesEnriched int     `json:"profiles_enriched"` // 完成富化档案数
	ImagesAnalyzed   int     `json:"images_analyzed"`   // 成功分析图片数
	ImageFailures    int     `json:"image_failures"`    // 图片下载/分析失败数
	FacesDetected    int     `json:"faces_detected"`    // 检测到人脸的档案数
	Duration         float64 `json:"duration"`          // 总耗时(秒)

	// ScoreDistribution 真实性分数分布 (0.25为一档, 上界档含1.0)
	ScoreDistribution map[string]int `json:"score_distribution,omitempty"`
}

// CrawlConfig 爬取与富化配置
type CrawlConfig struct {
	Depth        int       `json:"depth" mapstructure:"depth"`                 // 最大爬取深度 (种子URL为深度0)
	WaitTime     int       `json:"wait_time" mapstructure:"wait_time"`         // 页面/图片等待超时(秒)
	MaxWorkers   int       `json:"max_workers" mapstructure:"max_workers"`     // 富化并发上限
	Mode         FetchMode `json:"mode" mapstructure:"mode"`                   // 获取策略 (browser|http)
	Headless     bool      `json:"headless" mapstructure:"headless"`           // 浏览器无头模式
	UseAPIs      bool      `json:"use_apis" mapstructure:"use_apis"`           // 启用外部API富化
	CascadeFile  string    `json:"cascade_file" mapstructure:"cascade_file"`   // 人脸检测级联模型文件路径
	ProfileToken string    `json:"profile_token" mapstructure:"profile_token"` // 档案页URL特征子串

	// 资源配置 (富化并发上限的资源约束)
	SafetyReserveMemory int `json:"safety_reserve_memory" mapstructure:"safety_reserve_memory"` // 预留内存(MB)
	SafetyThreshold     int `json:"safety_threshold" mapstructure:"safety_threshold"`           // 内存告警阈值(MB)
	CPULoadThreshold    int `json:"cpu_load_threshold" mapstructure:"cpu_load_threshold"`       // CPU负载阈值(%)
	MaxWorkersLimit     int `json:"max_workers_limit" mapstructure:"max_workers_limit"`         // 并发数硬上限
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.Depth < 0 || c.Depth > 10 {
		return fmt.Errorf("深度必须在0-10之间")
	}
	if c.WaitTime < 0 || c.WaitTime > 120 {
		return fmt.Errorf("等待时间必须在0-120秒之间")
	}
	if c.MaxWorkers < 1 || c.MaxWorkers > 64 {
		return fmt.Errorf("并发数必须在1-64之间")
	}
	if c.Mode != ModeBrowser && c.Mode != ModeHTTP {
		return fmt.Errorf("无效的获取策略: %s (可选: browser|http)", c.Mode)
	}
	if c.ProfileToken == "" {
		return fmt.Errorf("档案页特征子串不能为空")
	}
	return nil
}

// ScrapeTask 采集任务
type ScrapeTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	BaseURL     string     `json:"base_url"`               // 目标站点URL
	Regions     []string   `json:"regions"`                // 地区过滤列表 ("all"表示不过滤)
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config CrawlConfig `json:"config"`

	// 执行状态
	Status TaskStatus `json:"status"`

	// 统计信息
	Stats PipelineStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewScrapeTask 创建新任务
func NewScrapeTask(baseURL string, regions []string, config CrawlConfig) (*ScrapeTask, error) {
	if err := ValidateURL(baseURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if len(regions) == 0 {
		regions = []string{"all"}
	}

	return &ScrapeTask{
		ID:        generateID(),
		BaseURL:   baseURL,
		Regions:   regions,
		CreatedAt: time.Now(),
		Config:    config,
		Status:    TaskStatusPending,
		Stats:     PipelineStats{},
	}, nil
}

// SeedURLs 返回任务的种子URL列表
// "all"地区直接使用BaseURL,其余地区追加为路径段 BaseURL/{region},
// 地区种子嵌套在基础路径之下而非替换末段
func (t *ScrapeTask) SeedURLs() []string {
	base := strings.TrimSuffix(t.BaseURL, "/")
	seeds := make([]string, 0, len(t.Regions))

	for _, region := range t.Regions {
		if region == "all" || region == "" {
			seeds = append(seeds, t.BaseURL)
			continue
		}
		seeds = append(seeds, base+"/"+region)
	}

	if len(seeds) == 0 {
		seeds = append(seeds, t.BaseURL)
	}
	return seeds
}

// ToJSON 序列化为JSON
func (t *ScrapeTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *ScrapeTask) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}
