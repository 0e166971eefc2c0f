package strategy

import (
	"math"

	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/indicator"
)

// 检查窗口为最新交易日之前的第 24 到第 10 个交易日
const (
	flagWindowStart = 24
	flagWindowEnd   = 10
)

// IsHighNarrowFlag 高而窄的旗形策略：
// 1) 至少有 min_trading_days 个交易日
// 2) 最新收盘价 / 窗口内最低价不低于 price_ratio
// 3) 窗口内存在连续两日涨幅不低于 big_up_threshold
func IsHighNarrowFlag(f *indicator.Frame, p config.HighNarrowFlagParams) bool {
	if f == nil || f.Len() < p.MinTradingDays {
		return false
	}

	n := f.Len()
	lo := n - flagWindowStart
	hi := n - flagWindowEnd
	if lo < 0 || hi-lo < flagWindowStart-flagWindowEnd {
		return false
	}

	lowest := math.NaN()
	for i := lo; i < hi; i++ {
		low := f.Bars[i].Low
		if !indicator.Defined(low) {
			continue
		}
		if !indicator.Defined(lowest) || low < lowest {
			lowest = low
		}
	}
	if !indicator.Defined(lowest) || lowest == 0 {
		return false
	}

	latest := f.Bars[n-1]
	if latest.Close/lowest < p.PriceRatio {
		return false
	}

	bigUps := 0
	for i := lo; i < hi; i++ {
		if f.Bars[i].PctChg >= p.BigUpThreshold {
			bigUps++
		}
	}
	if bigUps < 2 {
		return false
	}

	for i := lo; i < hi-1; i++ {
		if f.Bars[i].PctChg >= p.BigUpThreshold && f.Bars[i+1].PctChg >= p.BigUpThreshold {
			return true
		}
	}
	return false
}
