package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guoqi2046/aselect/cmd"
	"github.com/guoqi2046/aselect/config"
)

const configPathInfo = "配置文件路径"

func main() {
	var rootCmd = &cobra.Command{
		Use:           "aselect",
		Short:         "A 股选股工具",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var configPath, strategyName, outputDir string
	var historyDays, limit int

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if strategyName != "" {
			cfg.Strategy.Active = strategyName
		}
		if historyDays > 0 {
			cfg.Data.HistoryDays = historyDays
		}
		if outputDir != "" {
			cfg.Base.OutputDir = outputDir
		}
		if limit > 0 {
			cfg.Data.Scope.Limit = limit
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var selectCmd = &cobra.Command{
		Use:   "select",
		Short: "执行一次选股并输出结果",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return cmd.Select(context.Background(), cfg)
		},
	}

	var clearCache bool
	var clearDays int
	var cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "管理本地数据缓存",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			switch {
			case clearCache:
				return cmd.ClearCache(cfg)
			case clearDays > 0:
				return cmd.ClearCacheOlderThan(cfg, clearDays)
			default:
				return fmt.Errorf("either --clear or --clear-days is required")
			}
		},
	}

	var saveDefault, showConfig bool
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "查看或生成配置文件",
		RunE: func(c *cobra.Command, args []string) error {
			switch {
			case saveDefault:
				return cmd.SaveDefaultConfig(configPath)
			case showConfig:
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return cmd.ShowConfig(cfg)
			default:
				return fmt.Errorf("either --save-default or --show is required")
			}
		},
	}

	var cronCmd = &cobra.Command{
		Use:   "cron",
		Short: "按配置的计划定时执行选股",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return cmd.RunCron(context.Background(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", cmd.DefaultConfigPath, configPathInfo)

	selectCmd.Flags().StringVar(&strategyName, "strategy", "", "策略名称，all 表示全部策略")
	selectCmd.Flags().IntVar(&historyDays, "days", 0, "历史行情回看天数")
	selectCmd.Flags().StringVar(&outputDir, "output", "", "结果文件输出目录")
	selectCmd.Flags().IntVar(&limit, "limit", 0, "只处理前 N 只股票，0 表示不限制")

	cacheCmd.Flags().BoolVar(&clearCache, "clear", false, "清空全部缓存")
	cacheCmd.Flags().IntVar(&clearDays, "clear-days", 0, "删除超过 N 天的缓存文件")

	configCmd.Flags().BoolVar(&saveDefault, "save-default", false, "生成默认配置文件")
	configCmd.Flags().BoolVar(&showConfig, "show", false, "打印当前生效的配置")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cronCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "🛑 错误: %v\n", err)
		os.Exit(1)
	}
}
