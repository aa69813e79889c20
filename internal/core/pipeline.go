package core

import (
	"context"
	"fmt"
	"time"

	"github.com/ihsaland/datasnatch/internal/analyzer"
	"github.com/ihsaland/datasnatch/internal/crawlers"
	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/parser"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// Pipeline 采集流水线
// 串联三个阶段: 爬取(发现档案) → 富化(并发分析) → 持久化(JSON落盘)
// 阶段边界是同步点: 爬取全部完成后才开始富化,富化全部完成后一次性写出
type Pipeline struct {
	config   *Config
	headers  *HeaderManager
	reporter *utils.Reporter
}

// NewPipeline 创建流水线
func NewPipeline(config *Config, cliHeaders []string) (*Pipeline, error) {
	headers, err := NewHeaderManager(config.Headers, cliHeaders)
	if err != nil {
		return nil, fmt.Errorf("初始化HTTP头部失败: %w", err)
	}
	if err := headers.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		config:   config,
		headers:  headers,
		reporter: utils.NewReporter(config.Output.BaseDir),
	}, nil
}

// Run 执行一次完整的采集运行
// 唯一的致命失败是无法建立获取会话;其余失败按降级处理,运行总会产出报告
func (p *Pipeline) Run(ctx context.Context, baseURL string, regions []string) (*models.ScrapeTask, error) {
	task, err := models.NewScrapeTask(baseURL, regions, p.config.Crawl)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task.Status = models.TaskStatusRunning
	task.StartedAt = &now

	utils.Infof("🚀 开始采集任务 [%s]: %s (地区: %v, 深度: %d, 策略: %s)",
		task.ID, baseURL, task.Regions, task.Config.Depth, task.Config.Mode)
	utils.Debugf("请求头部: %v", p.headers.GetSafeHeaders())

	// 资源监控: 约束富化阶段的worker数
	monitor := crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{
		SafetyReserveMemory: int64(task.Config.SafetyReserveMemory) * 1024 * 1024,
		SafetyThreshold:     int64(task.Config.SafetyThreshold) * 1024 * 1024,
		CPULoadThreshold:    task.Config.CPULoadThreshold,
		MaxWorkersLimit:     task.Config.MaxWorkersLimit,
	})
	monitor.StartMonitoring(time.Second)
	defer monitor.StopMonitoring()

	// 阶段1: 爬取
	records, crawlStats, err := p.crawl(ctx, task)
	if err != nil {
		task.Status = models.TaskStatusFailed
		task.ErrorMessage = err.Error()
		p.finish(task, now)
		return task, err
	}

	// 阶段2: 富化
	enriched := p.enrich(ctx, task, records, monitor)

	// 阶段3: 持久化 (每次运行一次性写出)
	if _, err := p.reporter.SaveProfiles(enriched); err != nil {
		utils.Errorf("保存档案失败: %v", err)
	}

	p.collectStats(task, crawlStats, enriched)
	task.Status = models.TaskStatusCompleted
	p.finish(task, now)

	if err := p.reporter.GenerateReport(task); err != nil {
		utils.Errorf("生成报告失败: %v", err)
	}

	return task, nil
}

// crawl 执行爬取阶段
func (p *Pipeline) crawl(ctx context.Context, task *models.ScrapeTask) ([]*models.ProfileRecord, models.PipelineStats, error) {
	fetcher := crawlers.NewFetcher(task.Config, p.headers)
	listingParser := parser.NewListingParser()

	crawler := crawlers.NewCrawler(
		fetcher,
		listingParser,
		crawlers.PathContainsClassifier(task.Config.ProfileToken),
		task.Config.Depth,
	)

	records, err := crawler.CrawlAll(ctx, task.SeedURLs())
	if err != nil {
		return nil, models.PipelineStats{}, err
	}

	return records, crawler.GetStats(), nil
}

// enrich 执行富化阶段
// worker数取配置上限和资源预算中的较小值
func (p *Pipeline) enrich(ctx context.Context, task *models.ScrapeTask, records []*models.ProfileRecord, monitor *crawlers.ResourceMonitor) []*models.EnrichedProfile {
	if len(records) == 0 {
		utils.Warnf("没有发现任何档案,跳过富化阶段")
		return []*models.EnrichedProfile{}
	}

	providers := analyzer.NewProviderSet(task.Config.UseAPIs, analyzer.ProviderCredentials{
		GoogleAPIKey:   p.config.Providers.GoogleAPIKey,
		PhoneAPIKey:    p.config.Providers.PhoneAPIKey,
		LocationAPIKey: p.config.Providers.LocationAPIKey,
	})
	enricher := analyzer.NewProfileEnricher(
		analyzer.NewImageAnalyzer(task.Config.CascadeFile, providers.ReverseImage),
		analyzer.NewPhoneAnalyzer(providers),
		analyzer.NewLocationAnalyzer(providers),
		analyzer.NewAuthenticityScorer(),
	)

	status := monitor.GetMemoryStatus()
	utils.Debugf("内存状态: 压力=%s, 可用=%dMB, 已分配=%dMB",
		status.MemoryPressure, status.AvailableMemory/(1024*1024), status.AllocatedMemory/(1024*1024))

	workers := task.Config.MaxWorkers
	if budget := monitor.CalculateMaxWorkers(); budget < workers {
		utils.Warnf("资源预算限制富化并发: %d → %d", workers, budget)
		workers = budget
	}
	if ok, reason := monitor.CheckResourceAvailability(); !ok {
		utils.Warnf("系统资源紧张, 富化并发降为1: %s", reason)
		workers = 1
	}

	utils.Infof("🔬 开始富化 %d 条档案 (worker数: %d)", len(records), workers)
	bar := utils.NewProgressBar(len(records), "富化档案")

	enriched := enricher.EnrichAll(ctx, records, workers, func() {
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Println()

	return enriched
}

// collectStats 汇总运行统计
func (p *Pipeline) collectStats(task *models.ScrapeTask, crawlStats models.PipelineStats, enriched []*models.EnrichedProfile) {
	stats := crawlStats
	stats.ProfilesEnriched = len(enriched)
	stats.ScoreDistribution = make(map[string]int)

	totalImages := 0
	for _, profile := range enriched {
		totalImages += len(profile.Images)
		stats.ScoreDistribution[scoreBucket(profile.AuthenticityScore)]++
		if profile.ImageAnalysis == nil {
			continue
		}
		stats.ImagesAnalyzed += len(profile.ImageAnalysis.ImageQuality)
		if profile.ImageAnalysis.FaceDetected {
			stats.FacesDetected++
		}
	}
	stats.ImageFailures = totalImages - stats.ImagesAnalyzed

	task.Stats = stats
}

// scoreBucket 将分数归入0.25宽的分布档 (1.0归入最高档)
func scoreBucket(score float64) string {
	switch {
	case score < 0.25:
		return "0.00-0.25"
	case score < 0.5:
		return "0.25-0.50"
	case score < 0.75:
		return "0.50-0.75"
	default:
		return "0.75-1.00"
	}
}

// finish 收尾: 记录完成时间和耗时
func (p *Pipeline) finish(task *models.ScrapeTask, started time.Time) {
	done := time.Now()
	task.CompletedAt = &done
	task.Stats.Duration = done.Sub(started).Seconds()
}
