package utils

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ReadRegionsFromFile 从文件中读取地区列表
// 每行一个地区标识 (如 nevada, texas),跳过空行和#注释行
func ReadRegionsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开地区文件失败: %w", err)
	}
	defer file.Close()

	regions := make([]string, 0)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		regions = append(regions, strings.ToLower(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取地区文件失败: %w", err)
	}

	if len(regions) == 0 {
		return nil, fmt.Errorf("地区文件中没有有效的地区")
	}

	Infof("从文件加载了 %d 个地区", len(regions))
	return regions, nil
}

// ValidateURL 验证URL格式
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL缺少协议(http/https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}

	return nil
}
