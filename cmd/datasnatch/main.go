package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ihsaland/datasnatch/internal/core"
	"github.com/ihsaland/datasnatch/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证头部配置

	// 采集参数
	targetURL   string
	states      []string
	statesFile  string
	depth       int
	waitTime    int
	mode        string
	maxWorkers  int
	headless    bool
	useAPIs     bool
	cascadeFile string
	outputDir   string
)

var rootCmd = &cobra.Command{
	Use:   "datasnatch",
	Short: "分类广告档案采集与真实性分析工具",
	Long: `DataSnatch - 分类广告档案采集与真实性分析工具 (Go版本)

从分类广告站点发现并采集档案页,对每条档案执行图片、电话、位置分析,
合成真实性评分后以JSON落盘。支持:
  • 浏览器渲染(go-rod)和直接HTTP(colly)两种获取策略
  • 深度受限、去重的确定性遍历
  • 人脸检测与图片质量评估
  • 并发富化与资源感知的worker预算
  • 自定义HTTP请求头

使用示例:
  # 采集整站
  datasnatch -u https://example.com

  # 指定地区和深度
  datasnatch -u https://example.com --states nevada,texas -d 3

  # 直接HTTP模式 + 自定义头部
  datasnatch -u https://example.com -m http -H "User-Agent: MyBot/1.0"

  # 验证头部配置
  datasnatch --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ctrl+C优雅退出
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			cancel()
		}()

		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 验证头部配置模式
		if validateConfig {
			headerManager, err := core.NewHeaderManager(appConfig.Headers, headers)
			if err != nil {
				return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
			}
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		if targetURL == "" {
			return cmd.Help()
		}

		if err := ValidateFlags(targetURL, depth, waitTime, maxWorkers, mode); err != nil {
			return err
		}

		// 命令行参数合并进配置
		appConfig.MergeCLIFlags(depth, waitTime, maxWorkers, mode, headless, useAPIs)
		if cascadeFile != "" {
			appConfig.Crawl.CascadeFile = cascadeFile
		}
		if outputDir != "" {
			appConfig.Output.BaseDir = outputDir
		}

		// 地区列表: --states-file优先于--states
		regions := states
		if statesFile != "" {
			regions, err = utils.ReadRegionsFromFile(statesFile)
			if err != nil {
				return fmt.Errorf("读取地区文件失败: %w", err)
			}
		}

		pipeline, err := core.NewPipeline(appConfig, headers)
		if err != nil {
			return fmt.Errorf("创建流水线失败: %w", err)
		}

		task, err := pipeline.Run(ctx, targetURL, regions)
		if err != nil {
			return fmt.Errorf("采集失败: %w", err)
		}

		// 显示统计结果
		stats := task.Stats
		fmt.Println("\n==================================================")
		fmt.Println("📊 采集统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 访问URL数: %d\n", stats.VisitedURLs)
		fmt.Printf("✅ 发现档案数: %d\n", stats.ProfilesFound)
		fmt.Printf("✅ 完成富化档案数: %d\n", stats.ProfilesEnriched)
		fmt.Printf("✅ 成功分析图片: %d\n", stats.ImagesAnalyzed)
		fmt.Printf("✅ 检出人脸档案: %d\n", stats.FacesDetected)
		fmt.Printf("❌ 页面获取失败: %d\n", stats.FetchFailures)
		fmt.Printf("❌ 图片分析失败: %d\n", stats.ImageFailures)
		fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
		fmt.Println("==================================================")

		utils.Info("✨ 采集任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DataSnatch %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 档案采集与真实性分析工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证HTTP头部配置正确性")

	// 采集参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "目标站点URL (必需)")
	rootCmd.Flags().StringSliceVar(&states, "states", []string{}, "地区过滤列表 (默认: all)")
	rootCmd.Flags().StringVar(&statesFile, "states-file", "", "包含地区列表的文件路径")
	rootCmd.Flags().IntVarP(&depth, "depth", "d", 2, "爬取深度 (0-10, 0表示仅种子页)")
	rootCmd.Flags().IntVarP(&waitTime, "wait", "w", 30, "页面/图片等待超时(秒)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "browser", "获取策略 (browser|http)")
	rootCmd.Flags().IntVar(&maxWorkers, "threads", 4, "富化并发worker数")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVar(&useAPIs, "use-apis", false, "启用外部API富化 (地理编码/运营商/反向图搜)")
	rootCmd.Flags().StringVar(&cascadeFile, "cascade-file", "", "人脸检测级联模型文件路径")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (默认: data)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
