package analyzer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// ProfileEnricher 档案富化器
// 对每条档案并行执行图片、电话、位置三个分析分支,最后合成真实性评分
// 容错原则: 任何分支panic或失败都只使该分支的信号缺失,档案本身总会产出
type ProfileEnricher struct {
	images   *ImageAnalyzer
	phones   *PhoneAnalyzer
	location *LocationAnalyzer
	scorer   *AuthenticityScorer
}

// NewProfileEnricher 创建档案富化器
func NewProfileEnricher(images *ImageAnalyzer, phones *PhoneAnalyzer, location *LocationAnalyzer, scorer *AuthenticityScorer) *ProfileEnricher {
	return &ProfileEnricher{
		images:   images,
		phones:   phones,
		location: location,
		scorer:   scorer,
	}
}

// Enrich 富化单条档案
// 三个分析分支并行执行;评分必须等所有分支完成后最后计算
func (e *ProfileEnricher) Enrich(ctx context.Context, record *models.ProfileRecord) *models.EnrichedProfile {
	enriched := &models.EnrichedProfile{
		ProfileRecord:    record,
		ImageAnalysis:    models.NewImageAnalysis(),
		PhoneAnalysis:    models.NewPhoneAnalysis(),
		LocationAnalysis: models.NewLocationAnalysis(),
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		defer recoverBranch(record.ID, "图片分析")
		enriched.ImageAnalysis = e.images.AnalyzeImages(ctx, record.Images)
	}()

	go func() {
		defer wg.Done()
		defer recoverBranch(record.ID, "电话分析")
		enriched.PhoneAnalysis = e.phones.AnalyzePhone(ctx, record.Phone)
	}()

	go func() {
		defer wg.Done()
		defer recoverBranch(record.ID, "位置分析")
		enriched.LocationAnalysis = e.location.AnalyzeLocation(ctx, record.Location)
	}()

	wg.Wait()

	enriched.AuthenticityScore = e.scorer.Score(enriched)
	return enriched
}

// recoverBranch 分支panic保护
// 分支崩溃时保留构造时的空分析结果,对应信号按缺失处理
func recoverBranch(profileID, branch string) {
	if r := recover(); r != nil {
		utils.Errorf("富化分支panic [档案=%s, 分支=%s]: %v", profileID, branch, r)
	}
}

// EnrichAll 并发富化一批档案
// worker数受maxWorkers约束;输出按输入下标定位,顺序与爬取发现顺序一致
// onProgress非nil时在每条档案完成后调用 (进度条回调)
func (e *ProfileEnricher) EnrichAll(ctx context.Context, records []*models.ProfileRecord, maxWorkers int, onProgress func()) []*models.EnrichedProfile {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	enriched := make([]*models.EnrichedProfile, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			enriched[i] = e.Enrich(gctx, record)
			if onProgress != nil {
				onProgress()
			}
			return nil
		})
	}

	// worker不返回错误,Wait只用于等待全部完成
	_ = g.Wait()

	return enriched
}
