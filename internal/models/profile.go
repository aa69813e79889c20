package models

import (
	"encoding/json"
	"time"
)

// ProfileMetadata 档案采集元数据
type ProfileMetadata struct {
	// ScrapedAt 采集时间
	ScrapedAt time.Time `json:"scraped_at"`

	// SourceURL 档案页面的来源URL
	SourceURL string `json:"source_url"`
}

// ProfileRecord 原始档案记录
// 由PageParser从档案页面解析产生,创建后不再修改
// 富化阶段通过EnrichedProfile分层叠加,不回写本结构
type ProfileRecord struct {
	// ID 档案唯一ID (UUID)
	ID string `json:"id"`

	// 基础字段 (解析失败时为空值,不报错)
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Location   string `json:"location,omitempty"`
	Age        int    `json:"age,omitempty"`
	PostedDate string `json:"posted_date,omitempty"`
	Message    string `json:"message,omitempty"`

	// Images 档案图片URL列表 (按页面出现顺序)
	Images []string `json:"images"`

	// Metadata 采集元数据
	Metadata ProfileMetadata `json:"metadata"`
}

// NewProfileRecord 创建档案记录
func NewProfileRecord(sourceURL string) *ProfileRecord {
	return &ProfileRecord{
		ID:     generateID(),
		Images: make([]string, 0),
		Metadata: ProfileMetadata{
			ScrapedAt: time.Now(),
			SourceURL: sourceURL,
		},
	}
}

// Completeness 计算档案完整度
// 统计{姓名, 电话, 位置, 图片}四个字段中非空的比例
func (p *ProfileRecord) Completeness() float64 {
	present := 0
	if p.Name != "" {
		present++
	}
	if p.Phone != "" {
		present++
	}
	if p.Location != "" {
		present++
	}
	if len(p.Images) > 0 {
		present++
	}
	return float64(present) / 4.0
}

// ImageAnalysis 图片分析结果
type ImageAnalysis struct {
	// FaceDetected 任意一张图片检测到人脸即为true
	FaceDetected bool `json:"face_detected"`

	// FaceEncodings 人脸特征向量列表 (每张检测到人脸的图片一条,按处理顺序)
	FaceEncodings [][]float64 `json:"face_encodings"`

	// ImageQuality 图片质量评分列表 [0,1] (仅包含成功处理的图片,按处理顺序)
	ImageQuality []float64 `json:"image_quality"`

	// ReverseImageResults 反向图片搜索结果 (API未启用时为空)
	ReverseImageResults []map[string]string `json:"reverse_image_results"`
}

// NewImageAnalysis 创建空的图片分析结果
func NewImageAnalysis() *ImageAnalysis {
	return &ImageAnalysis{
		FaceEncodings:       make([][]float64, 0),
		ImageQuality:        make([]float64, 0),
		ReverseImageResults: make([]map[string]string, 0),
	}
}

// AverageQuality 计算平均图片质量
// 没有成功分析的图片时返回0
func (ia *ImageAnalysis) AverageQuality() float64 {
	if ia == nil || len(ia.ImageQuality) == 0 {
		return 0
	}
	sum := 0.0
	for _, q := range ia.ImageQuality {
		sum += q
	}
	return sum / float64(len(ia.ImageQuality))
}

// PhoneAnalysis 电话号码分析结果
type PhoneAnalysis struct {
	// IsValid 号码格式是否有效
	IsValid bool `json:"is_valid"`

	// Carrier 运营商名称 (API未启用时为空)
	Carrier string `json:"carrier,omitempty"`

	// AssociatedNames 关联姓名集合
	AssociatedNames []string `json:"associated_names"`

	// AssociatedProfiles 关联档案ID集合
	AssociatedProfiles []string `json:"associated_profiles"`
}

// NewPhoneAnalysis 创建空的电话分析结果
func NewPhoneAnalysis() *PhoneAnalysis {
	return &PhoneAnalysis{
		AssociatedNames:    make([]string, 0),
		AssociatedProfiles: make([]string, 0),
	}
}

// Coordinates 地理坐标
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationAnalysis 位置分析结果
type LocationAnalysis struct {
	// IsValid 位置是否通过地理编码验证 (API未启用时恒为false)
	IsValid bool `json:"is_valid"`

	// Coordinates 地理坐标 (地理编码成功时填充)
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// AssociatedProfiles 附近关联档案ID集合
	AssociatedProfiles []string `json:"associated_profiles"`
}

// NewLocationAnalysis 创建空的位置分析结果
func NewLocationAnalysis() *LocationAnalysis {
	return &LocationAnalysis{
		AssociatedProfiles: make([]string, 0),
	}
}

// EnrichedProfile 富化后的档案
// 在ProfileRecord之上叠加分析结果,不修改原始记录
// 不变量: AuthenticityScore在所有富化分支完成后最后填充
type EnrichedProfile struct {
	*ProfileRecord

	// ImageAnalysis 图片分析 (分支失败时为空分析结果)
	ImageAnalysis *ImageAnalysis `json:"image_analysis,omitempty"`

	// PhoneAnalysis 电话分析
	PhoneAnalysis *PhoneAnalysis `json:"phone_analysis,omitempty"`

	// LocationAnalysis 位置分析
	LocationAnalysis *LocationAnalysis `json:"location_analysis,omitempty"`

	// AuthenticityScore 真实性评分 [0,1]
	AuthenticityScore float64 `json:"authenticity_score"`
}

// ToJSON 序列化为JSON
func (e *EnrichedProfile) ToJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
