package model

import (
	"math"
	"time"
)

// StockInfo 股票列表中的一条记录
type StockInfo struct {
	Code string `parquet:"code" col:"code"`
	Name string `parquet:"name" col:"name"`
}

// Bar 单个交易日的行情记录，字段名在网关层统一为标准列
type Bar struct {
	Date   time.Time `parquet:"date"`
	Open   float64   `parquet:"open"`
	Close  float64   `parquet:"close"`
	High   float64   `parquet:"high"`
	Low    float64   `parquet:"low"`
	Volume float64   `parquet:"volume"`
	Amount float64   `parquet:"amount"`
	PctChg float64   `parquet:"pct_chg"`
}

// Complete 判断行情记录的数值列是否完整，缺失列以 NaN 表示
func (b Bar) Complete() bool {
	for _, v := range []float64{b.Open, b.Close, b.High, b.Low, b.Volume, b.Amount, b.PctChg} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// BalanceRow 资产负债表快照（单位：元）
type BalanceRow struct {
	ReportDate         time.Time
	TotalAssets        float64
	TotalCurrentAssets float64
	TotalLiabilities   float64
}

// IncomeRow 利润表快照（单位：元）
type IncomeRow struct {
	ReportDate   time.Time
	TotalRevenue float64
	NetProfit    float64
}

// CashFlowRow 现金流量表快照（单位：元）
type CashFlowRow struct {
	ReportDate     time.Time
	NetCashOperate float64
}

// ValuationRow 估值指标，按交易日排列
type ValuationRow struct {
	TradeDate time.Time
	PE        float64
	PB        float64
	ROE       float64
	TotalMV   float64
}

// Fundamentals 单只股票的基本面数据包，四个子表相互独立，均可为空。
// 子表内部始终按日期升序，最后一行即最新快照。
type Fundamentals struct {
	Balance   []BalanceRow
	Income    []IncomeRow
	CashFlow  []CashFlowRow
	Valuation []ValuationRow
}

// Empty 四个子表是否全部为空
func (f *Fundamentals) Empty() bool {
	if f == nil {
		return true
	}
	return len(f.Balance) == 0 && len(f.Income) == 0 &&
		len(f.CashFlow) == 0 && len(f.Valuation) == 0
}

// StrategyMatch 策略命中的一只股票
type StrategyMatch struct {
	Code string `col:"code"`
	Name string `col:"name"`
}

// RunStats 一次选股运行的处理计数
type RunStats struct {
	Total   int
	Success int64
	Fail    int64
}
