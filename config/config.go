package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config 程序全部可配置项，按原有的 base / strategy / data 三段划分
type Config struct {
	Base     BaseConfig     `yaml:"base"`
	Strategy StrategyConfig `yaml:"strategy"`
	Data     DataConfig     `yaml:"data"`
	Database DatabaseConfig `yaml:"database"`
}

type BaseConfig struct {
	OutputDir string `yaml:"output_dir"`
	CacheDir  string `yaml:"cache_dir"`
	UseCache  bool   `yaml:"use_cache"`

	// API 请求失败重试次数与重试间隔（秒）
	RetryCount    int     `yaml:"retry_count"`
	RetryPauseSec float64 `yaml:"retry_pause_sec"`

	// 每次远程请求前的随机延迟范围（秒），用于降低请求频率
	RequestDelayMin float64 `yaml:"request_delay_min"`
	RequestDelayMax float64 `yaml:"request_delay_max"`

	// 并发线程数，建议为 CPU 核心数的 2~4 倍
	MaxWorkers int `yaml:"max_workers"`

	// cron 子命令使用的定时表达式
	CronSpec string `yaml:"cron_spec"`
}

type StrategyConfig struct {
	// 启用的策略名，"all" 表示全部
	Active string `yaml:"active_strategy"`

	VolumeUp          VolumeUpParams          `yaml:"volume_up"`
	LandingPlatform   LandingPlatformParams   `yaml:"landing_platform"`
	HighNarrowFlag    HighNarrowFlagParams    `yaml:"high_narrow_flag"`
	FundamentalFilter FundamentalFilterParams `yaml:"fundamental_filter"`
	CigaretteButt     CigaretteButtParams     `yaml:"cigarette_butt"`
}

type VolumeUpParams struct {
	MinPctChange float64 `yaml:"min_pct_change"`
	MaxPctChange float64 `yaml:"max_pct_change"`
	MinAmount    float64 `yaml:"min_amount"`
	VolumeRatio  float64 `yaml:"volume_ratio"`
}

type LandingPlatformParams struct {
	BigUpThreshold   float64 `yaml:"big_up_threshold"`
	MaxDiffThreshold float64 `yaml:"max_diff_threshold"`
	AfterDaysRange   float64 `yaml:"after_days_range"`
}

type HighNarrowFlagParams struct {
	MinTradingDays int     `yaml:"min_trading_days"`
	PriceRatio     float64 `yaml:"price_ratio"`
	BigUpThreshold float64 `yaml:"big_up_threshold"`
}

type FundamentalFilterParams struct {
	MaxPE  float64 `yaml:"max_pe"`
	MinPE  float64 `yaml:"min_pe"`
	MaxPB  float64 `yaml:"max_pb"`
	MinROE float64 `yaml:"min_roe"`
}

type CigaretteButtParams struct {
	MaxPB               float64 `yaml:"max_pb"`
	MaxDebtRatio        float64 `yaml:"max_debt_ratio"`
	MinPositiveCashFlow bool    `yaml:"min_positive_cash_flow"`
}

type DataConfig struct {
	// 历史行情回看天数（日历日）
	HistoryDays int `yaml:"history_days"`

	// 复权方式: qfq / hfq / 空字符串（不复权）
	Adjust string `yaml:"adjust"`

	Scope       ScopeConfig       `yaml:"stock_scope"`
	Fundamental FundamentalConfig `yaml:"stock_fundamental"`
}

type ScopeConfig struct {
	// 限制处理的股票数量，0 表示不限制
	Limit         int      `yaml:"limit"`
	ExcludeStocks []string `yaml:"exclude_stocks"`
	IncludeStocks []string `yaml:"include_stocks"`
}

type FundamentalConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DatabaseConfig struct {
	// 结果库连接串，空表示不落库。
	// 支持 DuckDB 文件路径或 clickhouse:// URI。
	URI string `yaml:"uri"`
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		Base: BaseConfig{
			OutputDir:       "results",
			CacheDir:        "cache",
			UseCache:        true,
			RetryCount:      3,
			RetryPauseSec:   1.0,
			RequestDelayMin: 0.1,
			RequestDelayMax: 0.5,
			MaxWorkers:      8,
			CronSpec:        "30 15 * * 1-5",
		},
		Strategy: StrategyConfig{
			Active:            "volume_up",
			VolumeUp:          DefaultVolumeUpParams(),
			LandingPlatform:   LandingPlatformParams{BigUpThreshold: 9.5, MaxDiffThreshold: 3.0, AfterDaysRange: 5.0},
			HighNarrowFlag:    HighNarrowFlagParams{MinTradingDays: 60, PriceRatio: 1.9, BigUpThreshold: 9.5},
			FundamentalFilter: FundamentalFilterParams{MaxPE: 20.0, MinPE: 0.0, MaxPB: 10.0, MinROE: 15.0},
			CigaretteButt:     CigaretteButtParams{MaxPB: 0.5, MaxDebtRatio: 50.0, MinPositiveCashFlow: true},
		},
		Data: DataConfig{
			HistoryDays: 90,
			Adjust:      "qfq",
			Fundamental: FundamentalConfig{Enabled: false},
		},
	}
}

// DefaultVolumeUpParams 放量上涨策略的内置参数。
// 停机坪策略内部复用放量上涨判断时使用该组参数。
func DefaultVolumeUpParams() VolumeUpParams {
	return VolumeUpParams{
		MinPctChange: 0.0,
		MaxPctChange: 2.0,
		MinAmount:    200_000_000,
		VolumeRatio:  2.0,
	}
}

// Load 以默认配置为底，叠加 YAML 文件与环境变量。
// path 为空或文件不存在时仅使用默认值。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("ASELECT_CACHE_DIR"); v != "" {
		cfg.Base.CacheDir = v
	}
	if v := os.Getenv("ASELECT_OUTPUT_DIR"); v != "" {
		cfg.Base.OutputDir = v
	}
	if v := os.Getenv("ASELECT_DB_URI"); v != "" {
		cfg.Database.URI = v
	}
	if v := os.Getenv("ASELECT_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Base.MaxWorkers = n
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的合法性
func (c *Config) Validate() error {
	if c.Base.MaxWorkers <= 0 {
		return fmt.Errorf("base.max_workers must be positive")
	}
	if c.Base.RetryCount < 0 {
		return fmt.Errorf("base.retry_count cannot be negative")
	}
	if c.Base.RequestDelayMax < c.Base.RequestDelayMin {
		return fmt.Errorf("base.request_delay_max must be >= base.request_delay_min")
	}
	if c.Data.HistoryDays <= 0 {
		return fmt.Errorf("data.history_days must be positive")
	}
	switch c.Data.Adjust {
	case "qfq", "hfq", "":
	default:
		return fmt.Errorf("data.adjust must be qfq, hfq or empty, got %q", c.Data.Adjust)
	}
	return nil
}

// SaveDefault 将默认配置写为 YAML 文件
func SaveDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Dump 把当前配置序列化为 YAML 文本
func (c *Config) Dump() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}
