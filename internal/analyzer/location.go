package analyzer

import (
	"context"
	"strings"

	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// LocationAnalyzer 地理位置分析器
// 位置有效性依赖地理编码成功;未接入地理编码提供者时位置一律视为未验证
type LocationAnalyzer struct {
	geocode GeocodeProvider
	nearby  NearbyProfilesProvider
}

// NewLocationAnalyzer 创建位置分析器
func NewLocationAnalyzer(providers *ProviderSet) *LocationAnalyzer {
	la := &LocationAnalyzer{}
	if providers != nil {
		la.geocode = providers.Geocode
		la.nearby = providers.NearbyProfiles
	}
	return la
}

// AnalyzeLocation 校验并增强位置信息
func (la *LocationAnalyzer) AnalyzeLocation(ctx context.Context, location string) *models.LocationAnalysis {
	analysis := models.NewLocationAnalysis()

	location = strings.TrimSpace(location)
	if location == "" || la.geocode == nil {
		return analysis
	}

	coords, err := la.geocode.Geocode(ctx, location)
	if err != nil {
		utils.Warnf("%v", &ProviderError{Provider: "geocode", Err: err})
		return analysis
	}
	if coords == nil {
		return analysis
	}

	analysis.IsValid = true
	analysis.Coordinates = coords

	if la.nearby != nil {
		profiles, err := la.nearby.SearchNearby(ctx, *coords)
		if err != nil {
			utils.Warnf("%v", &ProviderError{Provider: "nearby_profiles", Err: err})
		} else {
			analysis.AssociatedProfiles = profiles
		}
	}

	return analysis
}
