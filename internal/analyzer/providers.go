package analyzer

import (
	"context"
	"fmt"

	"github.com/ihsaland/datasnatch/internal/models"
)

// ProviderError 外部信号提供者错误
// 单个信号失败只使该信号缺失,不影响同一档案的其他分析
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("提供者 [%s] 调用失败: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// CarrierProvider 运营商查询提供者
type CarrierProvider interface {
	GetCarrierInfo(ctx context.Context, phone string) (string, error)
}

// PhoneSearchProvider 电话号码在线检索提供者
// 返回与号码关联的姓名和档案链接
type PhoneSearchProvider interface {
	SearchPhone(ctx context.Context, phone string) (names []string, profiles []string, err error)
}

// GeocodeProvider 地理编码提供者
type GeocodeProvider interface {
	Geocode(ctx context.Context, location string) (*models.Coordinates, error)
}

// NearbyProfilesProvider 邻近档案检索提供者
type NearbyProfilesProvider interface {
	SearchNearby(ctx context.Context, coords models.Coordinates) ([]string, error)
}

// ReverseImageProvider 反向图片搜索提供者
type ReverseImageProvider interface {
	Search(ctx context.Context, imageURL string) ([]map[string]string, error)
}

// ProviderSet 外部信号提供者集合
// 槽位为nil表示对应信号禁用,所有增强信号保持零值
type ProviderSet struct {
	Carrier        CarrierProvider
	PhoneSearch    PhoneSearchProvider
	Geocode        GeocodeProvider
	NearbyProfiles NearbyProfilesProvider
	ReverseImage   ReverseImageProvider
}

// ProviderCredentials 各服务的API密钥
// 密钥为空的服务不会被装配,对应槽位保持nil
type ProviderCredentials struct {
	// GoogleAPIKey 反向图片搜索
	GoogleAPIKey string

	// PhoneAPIKey 运营商查询与号码检索
	PhoneAPIKey string

	// LocationAPIKey 地理编码与邻近档案检索
	LocationAPIKey string
}

// NewProviderSet 根据useAPIs开关和密钥构造提供者集合
// 提供者只在useAPIs开启且对应密钥存在时装配;当前实现为占位提供者,
// 返回空结果但完整走通富化链路
// TODO: 接入Twilio Lookup和Nominatim后替换占位实现
func NewProviderSet(useAPIs bool, creds ProviderCredentials) *ProviderSet {
	set := &ProviderSet{}
	if !useAPIs {
		return set
	}

	if creds.PhoneAPIKey != "" {
		phone := &placeholderPhoneProvider{apiKey: creds.PhoneAPIKey}
		set.Carrier = phone
		set.PhoneSearch = phone
	}
	if creds.LocationAPIKey != "" {
		location := &placeholderLocationProvider{apiKey: creds.LocationAPIKey}
		set.Geocode = location
		set.NearbyProfiles = location
	}
	if creds.GoogleAPIKey != "" {
		set.ReverseImage = &placeholderReverseImageProvider{apiKey: creds.GoogleAPIKey}
	}

	return set
}

// placeholderPhoneProvider 电话信号占位提供者: 返回空结果
type placeholderPhoneProvider struct {
	apiKey string
}

func (p *placeholderPhoneProvider) GetCarrierInfo(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (p *placeholderPhoneProvider) SearchPhone(_ context.Context, _ string) ([]string, []string, error) {
	return []string{}, []string{}, nil
}

// placeholderLocationProvider 位置信号占位提供者
// Geocode返回nil坐标,位置保持未验证状态
type placeholderLocationProvider struct {
	apiKey string
}

func (p *placeholderLocationProvider) Geocode(_ context.Context, _ string) (*models.Coordinates, error) {
	return nil, nil
}

func (p *placeholderLocationProvider) SearchNearby(_ context.Context, _ models.Coordinates) ([]string, error) {
	return []string{}, nil
}

// placeholderReverseImageProvider 反向图搜占位提供者: 返回空结果
type placeholderReverseImageProvider struct {
	apiKey string
}

func (p *placeholderReverseImageProvider) Search(_ context.Context, _ string) ([]map[string]string, error) {
	return []map[string]string{}, nil
}
