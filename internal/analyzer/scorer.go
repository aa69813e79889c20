package analyzer

import (
	"github.com/ihsaland/datasnatch/internal/models"
)

// 真实性评分权重 (固定,总和1.0)
const (
	weightFaceDetected = 0.30
	weightPhoneValid   = 0.20
	weightLocationVal  = 0.20
	weightImageQuality = 0.15
	weightCompleteness = 0.15
)

// AuthenticityScorer 档案真实性评分器
// 将各分析信号按固定权重合成为[0,1]区间的单一分数
// 纯函数: 相同的充实档案总是产生相同的分数
type AuthenticityScorer struct{}

// NewAuthenticityScorer 创建评分器
func NewAuthenticityScorer() *AuthenticityScorer {
	return &AuthenticityScorer{}
}

// Score 计算真实性分数
//   - 检出人脸: +0.30
//   - 电话有效: +0.20
//   - 位置有效: +0.20
//   - 平均图片质量 × 0.15
//   - 档案完整度 × 0.15
//
// 结果封顶1.0;信号全部缺失时为0.0
func (s *AuthenticityScorer) Score(profile *models.EnrichedProfile) float64 {
	score := 0.0

	if profile.ImageAnalysis != nil && profile.ImageAnalysis.FaceDetected {
		score += weightFaceDetected
	}
	if profile.PhoneAnalysis != nil && profile.PhoneAnalysis.IsValid {
		score += weightPhoneValid
	}
	if profile.LocationAnalysis != nil && profile.LocationAnalysis.IsValid {
		score += weightLocationVal
	}

	score += profile.ImageAnalysis.AverageQuality() * weightImageQuality

	if profile.ProfileRecord != nil {
		score += profile.Completeness() * weightCompleteness
	}

	if score > 1.0 {
		return 1.0
	}
	return score
}
