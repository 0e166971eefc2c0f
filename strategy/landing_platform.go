package strategy

import (
	"math"

	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/indicator"
)

// 候选大涨日在最近多少个交易日内寻找
const landingLookback = 20

// IsLandingPlatform 停机坪策略：
// 1) 最近 20 日内存在涨幅大于阈值且当日构成放量上涨的大涨日
// 2) 大涨日的下一交易日高开、收涨，开收盘价差小于阈值
// 3) 随后两个交易日均高开、收涨、价差小于 3%，且每日涨跌幅在区间内
// 找到第一个满足全部条件的候选日即命中。
func IsLandingPlatform(f *indicator.Frame, p config.LandingPlatformParams) bool {
	if f == nil || !f.Enriched() || f.Len() < landingLookback {
		return false
	}

	n := f.Len()
	maxDiff := p.MaxDiffThreshold / 100
	volumeUpParams := config.DefaultVolumeUpParams()

	for i := n - landingLookback; i < n; i++ {
		if f.Bars[i].PctChg <= p.BigUpThreshold {
			continue
		}
		// 大涨日之后需要三个交易日
		if i+3 >= n {
			continue
		}
		if !isVolumeUpAt(f, i, volumeUpParams) {
			continue
		}

		bigDay := f.Bars[i]
		next := f.Bars[i+1]
		if next.Open <= bigDay.Close || next.Close <= next.Open ||
			math.Abs(next.Close-next.Open)/next.Open >= maxDiff {
			continue
		}

		valid := true
		for j := 2; j <= 3; j++ {
			day := f.Bars[i+j]
			prev := f.Bars[i+j-1]
			if day.Open <= prev.Close || day.Close <= day.Open ||
				math.Abs(day.Close-day.Open)/day.Open >= 0.03 ||
				math.Abs(day.PctChg) > p.AfterDaysRange {
				valid = false
				break
			}
		}
		if valid {
			return true
		}
	}
	return false
}
