package analyzer

import (
	"context"
	"testing"

	"github.com/ihsaland/datasnatch/internal/models"
)

func newTestEnricher() *ProfileEnricher {
	providers := NewProviderSet(false, ProviderCredentials{})
	return NewProfileEnricher(
		NewImageAnalyzer("", nil),
		NewPhoneAnalyzer(providers),
		NewLocationAnalyzer(providers),
		NewAuthenticityScorer(),
	)
}

func TestProfileEnricher_Enrich(t *testing.T) {
	e := newTestEnricher()

	record := models.NewProfileRecord("https://example.com/profile/1")
	record.Name = "Jane"
	record.Phone = "+16502530000"
	record.Location = "Las Vegas, NV"

	enriched := e.Enrich(context.Background(), record)

	if enriched.ProfileRecord != record {
		t.Error("富化结果应引用原始记录")
	}
	if enriched.ImageAnalysis == nil || enriched.PhoneAnalysis == nil || enriched.LocationAnalysis == nil {
		t.Fatal("三个分析分支都应产出结果")
	}
	if !enriched.PhoneAnalysis.IsValid {
		t.Error("有效号码应通过校验")
	}
	if enriched.LocationAnalysis.IsValid {
		t.Error("未接入地理编码提供者时位置不应被验证")
	}

	// phone 0.20 + completeness 0.75*0.15
	want := 0.20 + 0.75*0.15
	if !almostEqual(enriched.AuthenticityScore, want) {
		t.Errorf("AuthenticityScore = %v, want %v", enriched.AuthenticityScore, want)
	}
}

func TestProfileEnricher_EmptyRecord(t *testing.T) {
	e := newTestEnricher()

	enriched := e.Enrich(context.Background(), models.NewProfileRecord("https://example.com/profile/2"))
	if enriched.AuthenticityScore != 0.0 {
		t.Errorf("全空档案的分数 = %v, want 0.0", enriched.AuthenticityScore)
	}
}

// panicGeocode 总是panic的地理编码提供者
type panicGeocode struct{}

func (panicGeocode) Geocode(_ context.Context, _ string) (*models.Coordinates, error) {
	panic("geocode provider exploded")
}

func TestProfileEnricher_BranchPanicIsIsolated(t *testing.T) {
	providers := &ProviderSet{Geocode: panicGeocode{}}
	e := NewProfileEnricher(
		NewImageAnalyzer("", nil),
		NewPhoneAnalyzer(nil),
		NewLocationAnalyzer(providers),
		NewAuthenticityScorer(),
	)

	record := models.NewProfileRecord("https://example.com/profile/3")
	record.Phone = "+16502530000"
	record.Location = "Las Vegas, NV"

	enriched := e.Enrich(context.Background(), record)

	// 位置分支panic: 位置信号缺失, 其余分支照常
	if enriched.LocationAnalysis == nil || enriched.LocationAnalysis.IsValid {
		t.Error("panic分支的信号应保持零值")
	}
	if !enriched.PhoneAnalysis.IsValid {
		t.Error("其他分支不应受panic分支影响")
	}
	if enriched.AuthenticityScore <= 0 {
		t.Error("评分仍应在分支完成后计算")
	}
}

func TestProfileEnricher_EnrichAllPreservesOrder(t *testing.T) {
	e := newTestEnricher()

	records := make([]*models.ProfileRecord, 8)
	for i := range records {
		records[i] = models.NewProfileRecord("https://example.com/profile/batch")
		records[i].Name = string(rune('a' + i))
	}

	enriched := e.EnrichAll(context.Background(), records, 3, nil)

	if len(enriched) != len(records) {
		t.Fatalf("输出数量 = %d, want %d", len(enriched), len(records))
	}
	for i := range records {
		if enriched[i] == nil {
			t.Fatalf("下标%d的档案未富化", i)
		}
		if enriched[i].ProfileRecord != records[i] {
			t.Errorf("下标%d的输出与输入不对应", i)
		}
	}
}

func TestProfileEnricher_EnrichAllEmpty(t *testing.T) {
	e := newTestEnricher()
	if got := e.EnrichAll(context.Background(), nil, 4, nil); len(got) != 0 {
		t.Errorf("空输入应产生空输出, 实际 %d 条", len(got))
	}
}
