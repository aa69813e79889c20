package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ihsaland/datasnatch/internal/models"
)

// Reporter 结果持久化与报告生成器
// 职责: 将富化后的档案和运行报告以JSON落盘
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// SaveProfiles 保存富化档案列表
// 每次运行一次性写入,文件名带时间戳: profiles_20240315T104500.json
func (r *Reporter) SaveProfiles(profiles []*models.EnrichedProfile) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	filename := fmt.Sprintf("profiles_%s.json", time.Now().Format("20060102T150405"))
	path := filepath.Join(r.outputDir, filename)

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化档案失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入档案文件失败: %w", err)
	}

	Infof("✅ 已保存 %d 条档案: %s", len(profiles), path)
	return path, nil
}

// GenerateReport 生成运行报告 (report.json)
func (r *Reporter) GenerateReport(task *models.ScrapeTask) error {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	path := filepath.Join(r.outputDir, "report.json")

	data, err := task.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Infof("✅ 报告已生成: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
