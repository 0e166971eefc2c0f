package indicator

import (
	"math"

	"github.com/guoqi2046/aselect/model"
)

// 各类滚动统计的窗口
var (
	closeMAWindows  = []int{5, 10, 20, 30, 60}
	volumeMAWindows = []int{5, 10}
	extremaWindows  = []int{5, 10, 20, 30, 60}
	lowRatioWindows = []int{10, 20, 30, 60}
)

// 涨跌幅回看的最大滞后期
const MaxLag = 15

// Frame 行情序列加派生指标。派生列与 Bars 等长对齐，
// 历史不足的位置为 NaN。
type Frame struct {
	Bars []model.Bar

	// 收盘价均线与成交量均线，按窗口索引
	CloseMA  map[int][]float64
	VolumeMA map[int][]float64

	// 窗口内最高价 / 最低价，以及收盘价与窗口最低价的比值
	HighestN      map[int][]float64
	LowestN       map[int][]float64
	PriceToLowest map[int][]float64

	// 当日成交量 / 5 日平均成交量
	VolumeRatio []float64

	// 滞后 1..MaxLag 日的涨跌幅
	PctChgLag map[int][]float64

	enriched bool
}

// Len 返回行情条数
func (f *Frame) Len() int { return len(f.Bars) }

// Enriched 派生列是否可用。输入序列缺少必要数值列时为 false，
// 此时策略必须把派生值当作条件不成立处理。
func (f *Frame) Enriched() bool { return f.enriched }

// Defined 判断派生值是否有效，NaN 表示历史不足或列缺失
func Defined(v float64) bool { return !math.IsNaN(v) }

// Enrich 计算全部派生指标。纯函数：只读取输入序列，所有滚动与滞后
// 统计仅使用当前及更早的行情，不足窗口长度的位置为 NaN。
// 任一行情记录的必要列缺失时不做部分计算，原样返回未增强的 Frame。
func Enrich(bars []model.Bar) *Frame {
	f := &Frame{Bars: bars}
	if len(bars) == 0 {
		return f
	}
	for _, b := range bars {
		if !b.Complete() {
			return f
		}
	}

	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)

	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	f.CloseMA = make(map[int][]float64, len(closeMAWindows))
	for _, w := range closeMAWindows {
		f.CloseMA[w] = rollingMean(closes, w)
	}

	f.VolumeMA = make(map[int][]float64, len(volumeMAWindows))
	for _, w := range volumeMAWindows {
		f.VolumeMA[w] = rollingMean(volumes, w)
	}

	f.HighestN = make(map[int][]float64, len(extremaWindows))
	f.LowestN = make(map[int][]float64, len(extremaWindows))
	for _, w := range extremaWindows {
		f.HighestN[w] = rollingExtremum(bars, w, func(b model.Bar) float64 { return b.High }, math.Max)
		f.LowestN[w] = rollingExtremum(bars, w, func(b model.Bar) float64 { return b.Low }, math.Min)
	}

	f.PriceToLowest = make(map[int][]float64, len(lowRatioWindows))
	for _, w := range lowRatioWindows {
		ratios := make([]float64, n)
		lowest := f.LowestN[w]
		for i := range bars {
			if Defined(lowest[i]) && lowest[i] != 0 {
				ratios[i] = bars[i].Close / lowest[i]
			} else {
				ratios[i] = math.NaN()
			}
		}
		f.PriceToLowest[w] = ratios
	}

	f.VolumeRatio = make([]float64, n)
	volMA5 := f.VolumeMA[5]
	for i := range bars {
		if Defined(volMA5[i]) && volMA5[i] != 0 {
			f.VolumeRatio[i] = bars[i].Volume / volMA5[i]
		} else {
			f.VolumeRatio[i] = math.NaN()
		}
	}

	f.PctChgLag = make(map[int][]float64, MaxLag)
	for lag := 1; lag <= MaxLag; lag++ {
		lagged := make([]float64, n)
		for i := range bars {
			if i >= lag {
				lagged[i] = bars[i-lag].PctChg
			} else {
				lagged[i] = math.NaN()
			}
		}
		f.PctChgLag[lag] = lagged
	}

	f.enriched = true
	return f
}

// rollingMean 窗口均值，前 window-1 个位置为 NaN
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64

	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func rollingExtremum(bars []model.Bar, window int, pick func(model.Bar) float64, better func(float64, float64) float64) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		v := pick(bars[i])
		for j := i - window + 1; j < i; j++ {
			v = better(v, pick(bars[j]))
		}
		out[i] = v
	}
	return out
}
