package strategy

import (
	"fmt"
	"strings"

	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/indicator"
	"github.com/guoqi2046/aselect/model"
)

// Input 策略判断的输入。技术面策略读取 Frame，
// 基本面策略读取 Fundamentals。
type Input struct {
	Frame        *indicator.Frame
	Fundamentals *model.Fundamentals
}

// Strategy 一条命名的选股规则
type Strategy struct {
	Name string

	// 是否依赖基本面数据包
	NeedsFundamentals bool

	Match func(in Input, cfg *config.StrategyConfig) bool
}

// ActiveAll 表示启用全部已注册策略
const ActiveAll = "all"

var registry = []Strategy{
	{
		Name: "volume_up",
		Match: func(in Input, cfg *config.StrategyConfig) bool {
			return IsVolumeUp(in.Frame, cfg.VolumeUp)
		},
	},
	{
		Name: "landing_platform",
		Match: func(in Input, cfg *config.StrategyConfig) bool {
			return IsLandingPlatform(in.Frame, cfg.LandingPlatform)
		},
	},
	{
		Name: "high_narrow_flag",
		Match: func(in Input, cfg *config.StrategyConfig) bool {
			return IsHighNarrowFlag(in.Frame, cfg.HighNarrowFlag)
		},
	},
	{
		Name:              "fundamental_filter",
		NeedsFundamentals: true,
		Match: func(in Input, cfg *config.StrategyConfig) bool {
			return IsGoodFundamental(in.Fundamentals, cfg.FundamentalFilter)
		},
	},
	{
		Name:              "cigarette_butt",
		NeedsFundamentals: true,
		Match: func(in Input, cfg *config.StrategyConfig) bool {
			return IsCigaretteButt(in.Fundamentals, cfg.CigaretteButt)
		},
	},
}

// Names 返回全部已注册策略名
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.Name
	}
	return names
}

// Enabled 根据配置解析本次运行启用的策略集合。
// 基本面数据获取被禁用时，依赖基本面的策略整体剔除，
// 该决定每次运行只做一次。
func Enabled(active string, fundamentalsEnabled bool) ([]Strategy, error) {
	var selected []Strategy

	if active == ActiveAll {
		selected = append(selected, registry...)
	} else {
		found := false
		for _, s := range registry {
			if s.Name == active {
				selected = append(selected, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown strategy %q, available: %s, or %q",
				active, strings.Join(Names(), ", "), ActiveAll)
		}
	}

	if !fundamentalsEnabled {
		kept := selected[:0]
		for _, s := range selected {
			if !s.NeedsFundamentals {
				kept = append(kept, s)
			}
		}
		selected = kept
	}
	return selected, nil
}

// NeedFundamentals 判断启用的策略中是否有基本面策略
func NeedFundamentals(strategies []Strategy) bool {
	for _, s := range strategies {
		if s.NeedsFundamentals {
			return true
		}
	}
	return false
}
