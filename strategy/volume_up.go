package strategy

import (
	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/indicator"
)

// 放量上涨判断至少需要的行情条数（保证 5 日均量有效）
const volumeUpMinBars = 6

// IsVolumeUp 放量上涨策略：
// 1) 当日涨幅在 [min, max] 区间内，或收盘价低于开盘价（回调日不破坏信号）
// 2) 当日成交额不低于下限
// 3) 当日成交量 / 5 日平均成交量不低于比值下限
func IsVolumeUp(f *indicator.Frame, p config.VolumeUpParams) bool {
	if f == nil || f.Len() < volumeUpMinBars {
		return false
	}
	return isVolumeUpAt(f, f.Len()-1, p)
}

// isVolumeUpAt 在指定位置判断放量上涨。停机坪策略在候选大涨日上
// 复用同一判断，使用与顶层相同的代码路径。
func isVolumeUpAt(f *indicator.Frame, idx int, p config.VolumeUpParams) bool {
	if !f.Enriched() || idx < volumeUpMinBars-1 {
		return false
	}

	bar := f.Bars[idx]
	ratio := f.VolumeRatio[idx]
	if !indicator.Defined(ratio) {
		return false
	}

	inRange := bar.PctChg >= p.MinPctChange && bar.PctChg <= p.MaxPctChange
	if !inRange && !(bar.Close < bar.Open) {
		return false
	}
	if bar.Amount < p.MinAmount {
		return false
	}
	return ratio >= p.VolumeRatio
}
