package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// 北美号码格式的基础校验 (锚定在字符串开头)
var nanpPattern = regexp.MustCompile(`^\+?1?\s*\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`)

// PhoneAnalyzer 电话号码分析器
// 基础校验用libphonenumber解析,解析失败时回退到北美格式正则
// API增强信号 (运营商、关联档案) 由提供者贡献,失败时信号保持零值
type PhoneAnalyzer struct {
	carrier     CarrierProvider
	phoneSearch PhoneSearchProvider

	// 解析默认地区
	defaultRegion string
}

// NewPhoneAnalyzer 创建电话分析器
func NewPhoneAnalyzer(providers *ProviderSet) *PhoneAnalyzer {
	pa := &PhoneAnalyzer{defaultRegion: "US"}
	if providers != nil {
		pa.carrier = providers.Carrier
		pa.phoneSearch = providers.PhoneSearch
	}
	return pa
}

// AnalyzePhone 校验并增强电话号码
// 空号码直接返回无效结果;增强信号仅在号码有效时查询
func (pa *PhoneAnalyzer) AnalyzePhone(ctx context.Context, phone string) *models.PhoneAnalysis {
	analysis := models.NewPhoneAnalysis()

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return analysis
	}

	analysis.IsValid = pa.validate(phone)
	if !analysis.IsValid {
		return analysis
	}

	if pa.carrier != nil {
		carrier, err := pa.carrier.GetCarrierInfo(ctx, phone)
		if err != nil {
			utils.Warnf("%v", &ProviderError{Provider: "carrier", Err: err})
		} else {
			analysis.Carrier = carrier
		}
	}

	if pa.phoneSearch != nil {
		names, profiles, err := pa.phoneSearch.SearchPhone(ctx, phone)
		if err != nil {
			utils.Warnf("%v", &ProviderError{Provider: "phone_search", Err: err})
		} else {
			analysis.AssociatedNames = names
			analysis.AssociatedProfiles = profiles
		}
	}

	return analysis
}

// validate 判断号码是否有效
func (pa *PhoneAnalyzer) validate(phone string) bool {
	parsed, err := phonenumbers.Parse(phone, pa.defaultRegion)
	if err == nil {
		return phonenumbers.IsValidNumber(parsed)
	}
	return nanpPattern.MatchString(phone)
}
