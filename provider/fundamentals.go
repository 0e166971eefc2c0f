package provider

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/guoqi2046/aselect/model"
	"github.com/guoqi2046/aselect/utils"
)

// 东财数据中心报表名
const (
	reportBalance   = "RPT_DMSK_FN_BALANCE"
	reportIncome    = "RPT_DMSK_FN_INCOME"
	reportCashFlow  = "RPT_DMSK_FN_CASHFLOW"
	reportValuation = "RPT_VALUEANALYSIS_DET"
)

// FetchFundamentals 获取基本面数据包。四个子表相互独立，
// 任一子表失败只产生空子表，不影响其余部分。
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) *model.Fundamentals {
	if c.store != nil {
		if fd, ok := c.store.GetFundamentals(symbol); ok {
			return fd
		}
	}

	secucode := utils.SecuCode(symbol)
	fd := &model.Fundamentals{}

	if rows, err := fetchReport[balanceRaw](c, ctx, reportBalance, "REPORT_DATE", secucode); err != nil {
		log.Printf("[WARN] fetch balance sheet for %s: %v", symbol, err)
	} else {
		fd.Balance = normalizeBalance(rows)
	}

	if rows, err := fetchReport[incomeRaw](c, ctx, reportIncome, "REPORT_DATE", secucode); err != nil {
		log.Printf("[WARN] fetch income statement for %s: %v", symbol, err)
	} else {
		fd.Income = normalizeIncome(rows)
	}

	if rows, err := fetchReport[cashFlowRaw](c, ctx, reportCashFlow, "REPORT_DATE", secucode); err != nil {
		log.Printf("[WARN] fetch cash flow for %s: %v", symbol, err)
	} else {
		fd.CashFlow = normalizeCashFlow(rows)
	}

	if rows, err := fetchReport[valuationRaw](c, ctx, reportValuation, "TRADE_DATE", secucode); err != nil {
		log.Printf("[WARN] fetch valuation indicators for %s: %v", symbol, err)
	} else {
		fd.Valuation = normalizeValuation(rows)
	}

	if c.store != nil && !fd.Empty() {
		c.store.PutFundamentals(symbol, fd)
	}
	return fd
}

type dataCenterResponse[T any] struct {
	Success bool `json:"success"`
	Result  *struct {
		Data []T `json:"data"`
	} `json:"result"`
}

func fetchReport[T any](c *Client, ctx context.Context, reportName, sortColumn, secucode string) ([]T, error) {
	c.throttle()

	filter := fmt.Sprintf(`(SECUCODE="%s")`, secucode)
	u := fmt.Sprintf("%s/api/data/v1/get?reportName=%s&columns=ALL&filter=%s"+
		"&sortColumns=%s&sortTypes=1&pageSize=500&pageNumber=1",
		c.DataBase, reportName, url.QueryEscape(filter), sortColumn)

	var resp dataCenterResponse[T]
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, nil
	}
	return resp.Result.Data, nil
}

// 原始行结构，数值列缺失时为 nil
type balanceRaw struct {
	ReportDate         string   `json:"REPORT_DATE"`
	TotalAssets        *float64 `json:"TOTAL_ASSETS"`
	TotalCurrentAssets *float64 `json:"TOTAL_CURRENT_ASSETS"`
	TotalLiabilities   *float64 `json:"TOTAL_LIABILITIES"`
}

type incomeRaw struct {
	ReportDate   string   `json:"REPORT_DATE"`
	TotalRevenue *float64 `json:"TOTAL_OPERATE_INCOME"`
	NetProfit    *float64 `json:"PARENT_NETPROFIT"`
}

type cashFlowRaw struct {
	ReportDate     string   `json:"REPORT_DATE"`
	NetCashOperate *float64 `json:"NETCASH_OPERATE"`
}

type valuationRaw struct {
	TradeDate string   `json:"TRADE_DATE"`
	PE        *float64 `json:"PE_TTM"`
	PB        *float64 `json:"PB_MRQ"`
	ROE       *float64 `json:"ROE_AVG"`
	TotalMV   *float64 `json:"TOTAL_MARKET_CAP"`
}

func normalizeBalance(rows []balanceRaw) []model.BalanceRow {
	out := make([]model.BalanceRow, 0, len(rows))
	for _, r := range rows {
		date, err := parseReportDate(r.ReportDate)
		if err != nil {
			continue
		}
		out = append(out, model.BalanceRow{
			ReportDate:         date,
			TotalAssets:        floatOrNaN(r.TotalAssets),
			TotalCurrentAssets: floatOrNaN(r.TotalCurrentAssets),
			TotalLiabilities:   floatOrNaN(r.TotalLiabilities),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.Before(out[j].ReportDate) })
	return out
}

func normalizeIncome(rows []incomeRaw) []model.IncomeRow {
	out := make([]model.IncomeRow, 0, len(rows))
	for _, r := range rows {
		date, err := parseReportDate(r.ReportDate)
		if err != nil {
			continue
		}
		out = append(out, model.IncomeRow{
			ReportDate:   date,
			TotalRevenue: floatOrNaN(r.TotalRevenue),
			NetProfit:    floatOrNaN(r.NetProfit),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.Before(out[j].ReportDate) })
	return out
}

func normalizeCashFlow(rows []cashFlowRaw) []model.CashFlowRow {
	out := make([]model.CashFlowRow, 0, len(rows))
	for _, r := range rows {
		date, err := parseReportDate(r.ReportDate)
		if err != nil {
			continue
		}
		out = append(out, model.CashFlowRow{
			ReportDate:     date,
			NetCashOperate: floatOrNaN(r.NetCashOperate),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.Before(out[j].ReportDate) })
	return out
}

func normalizeValuation(rows []valuationRaw) []model.ValuationRow {
	out := make([]model.ValuationRow, 0, len(rows))
	for _, r := range rows {
		date, err := parseReportDate(r.TradeDate)
		if err != nil {
			continue
		}
		out = append(out, model.ValuationRow{
			TradeDate: date,
			PE:        floatOrNaN(r.PE),
			PB:        floatOrNaN(r.PB),
			ROE:       floatOrNaN(r.ROE),
			TotalMV:   floatOrNaN(r.TotalMV),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate.Before(out[j].TradeDate) })
	return out
}

func parseReportDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func floatOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
