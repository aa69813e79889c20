package main

import (
	"fmt"

	"github.com/ihsaland/datasnatch/internal/models"
)

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	return models.ValidateURL(urlStr)
}

// ValidateFlags 验证命令行标志
func ValidateFlags(targetURL string, depth int, waitTime int, maxWorkers int, mode string) error {
	if targetURL != "" {
		if err := ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	// 深度0合法: 仅采集种子页
	if depth < 0 || depth > 10 {
		return fmt.Errorf("爬取深度必须在0-10之间,当前值: %d", depth)
	}

	if waitTime < 0 || waitTime > 120 {
		return fmt.Errorf("等待时间必须在0-120秒之间,当前值: %d", waitTime)
	}

	if maxWorkers < 1 || maxWorkers > 64 {
		return fmt.Errorf("并发数必须在1-64之间,当前值: %d", maxWorkers)
	}

	validModes := map[string]bool{
		"browser": true,
		"http":    true,
	}
	if !validModes[mode] {
		return fmt.Errorf("无效的获取策略: %s (有效值: browser, http)", mode)
	}

	return nil
}
