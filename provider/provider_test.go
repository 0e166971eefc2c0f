package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guoqi2046/aselect/cache"
	"github.com/guoqi2046/aselect/config"
)

func newTestClient(t *testing.T, handler http.Handler, withCache bool) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Base.RequestDelayMin = 0
	cfg.Base.RequestDelayMax = 0

	var store *cache.Store
	if withCache {
		var err error
		store, err = cache.NewStore(t.TempDir())
		require.NoError(t, err)
	}

	c := NewClient(cfg, store)
	c.QuoteBase = srv.URL
	c.HisBase = srv.URL
	c.DataBase = srv.URL
	return c, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestFetchUniversePaging(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/qt/clist/get", r.URL.Path)

		page := r.URL.Query().Get("pn")
		var diff []map[string]string
		switch page {
		case "1":
			for i := 0; i < universePageSize; i++ {
				diff = append(diff, map[string]string{
					"f12": fmt.Sprintf("30%04d", i),
					"f14": fmt.Sprintf("创业板%d", i),
				})
			}
		case "2":
			diff = []map[string]string{
				{"f12": "600000", "f14": "浦发银行"},
				{"f12": "000001", "f14": "平安银行"},
			}
		}
		writeJSON(w, map[string]any{"data": map[string]any{"total": universePageSize + 2, "diff": diff}})
	})

	client, _ := newTestClient(t, handler, false)

	list, err := client.FetchUniverse(context.Background())
	require.NoError(t, err)
	require.Len(t, list, universePageSize+2)

	// 结果按代码升序
	assert.Equal(t, "000001", list[0].Code)
	assert.Equal(t, "平安银行", list[0].Name)
	assert.Equal(t, "600000", list[len(list)-1].Code)
}

func TestFetchUniverseEmptyIsError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": nil})
	})

	client, _ := newTestClient(t, handler, false)

	_, err := client.FetchUniverse(context.Background())
	require.Error(t, err)
}

func TestFetchUniverseUsesDailyCache(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, map[string]any{"data": map[string]any{
			"total": 1,
			"diff":  []map[string]string{{"f12": "600000", "f14": "浦发银行"}},
		}})
	})

	client, _ := newTestClient(t, handler, true)

	first, err := client.FetchUniverse(context.Background())
	require.NoError(t, err)

	second, err := client.FetchUniverse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load(), "second call served from cache")
}

func klinePayload(klines []string) map[string]any {
	return map[string]any{"data": map[string]any{"code": "600000", "klines": klines}}
}

func TestFetchHistoryNormalizes(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/qt/stock/kline/get", r.URL.Path)
		assert.Equal(t, "1.600000", r.URL.Query().Get("secid"))
		assert.Equal(t, "1", r.URL.Query().Get("fqt"))

		// 乱序返回，且含一个缺失列和一个坏行
		writeJSON(w, klinePayload([]string{
			"2025-03-04,10.2,10.4,10.5,10.1,1200,1.3e8,2.9,1.96,0.2,0.6",
			"2025-03-03,10.0,10.2,10.3,9.9,1000,1.2e8,4.0,-,0.2,0.5",
			"not a kline",
			"2025-03-05,10.4,10.6,10.7,10.3,1500,1.5e8,3.8,1.92,0.2,0.7",
		}))
	})

	client, _ := newTestClient(t, handler, false)

	bars, err := client.FetchHistory(context.Background(), "600000", "20250301", "20250310", "qfq")
	require.NoError(t, err)
	require.Len(t, bars, 3, "unparseable rows are dropped")

	// 升序排列
	assert.Equal(t, "2025-03-03", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-03-05", bars[2].Date.Format("2006-01-02"))

	assert.Equal(t, 10.2, bars[0].Close)
	assert.True(t, math.IsNaN(bars[0].PctChg), "missing column becomes NaN")
	assert.Equal(t, 1.96, bars[1].PctChg)
	assert.False(t, bars[0].Complete())
	assert.True(t, bars[1].Complete())
}

func TestFetchHistoryEmptyIsNotError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, klinePayload(nil))
	})

	client, _ := newTestClient(t, handler, false)

	bars, err := client.FetchHistory(context.Background(), "600000", "20250301", "20250310", "qfq")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchHistoryServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})

	client, _ := newTestClient(t, handler, false)

	_, err := client.FetchHistory(context.Background(), "600000", "20250301", "20250310", "qfq")
	require.Error(t, err)
}

func TestFetchHistoryUsesCache(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, klinePayload([]string{
			"2025-03-03,10.0,10.2,10.3,9.9,1000,1.2e8,4.0,0.5,0.05,0.5",
		}))
	})

	client, _ := newTestClient(t, handler, true)

	first, err := client.FetchHistory(context.Background(), "600000", "20250301", "20250310", "qfq")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := client.FetchHistory(context.Background(), "600000", "20250301", "20250310", "qfq")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, int64(1), calls.Load())

	// 不同复权方式是另一个缓存键
	_, err = client.FetchHistory(context.Background(), "600000", "20250301", "20250310", "hfq")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func reportPayload(rows any) map[string]any {
	return map[string]any{"success": true, "result": map[string]any{"data": rows}}
}

func TestFetchFundamentalsPartialFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data/v1/get", r.URL.Path)

		switch r.URL.Query().Get("reportName") {
		case reportBalance:
			writeJSON(w, reportPayload([]map[string]any{{
				"REPORT_DATE":          "2025-03-31 00:00:00",
				"TOTAL_ASSETS":         2000.0,
				"TOTAL_CURRENT_ASSETS": 1000.0,
				"TOTAL_LIABILITIES":    400.0,
			}}))
		case reportIncome:
			http.Error(w, "oops", http.StatusInternalServerError)
		case reportCashFlow:
			writeJSON(w, reportPayload([]map[string]any{{
				"REPORT_DATE":     "2025-03-31 00:00:00",
				"NETCASH_OPERATE": 30.0,
			}}))
		case reportValuation:
			// 乱序两行，PB 列缺失一行
			writeJSON(w, reportPayload([]map[string]any{
				{"TRADE_DATE": "2025-04-02 00:00:00", "PE_TTM": 12.0, "PB_MRQ": 1.1, "ROE_AVG": 16.0, "TOTAL_MARKET_CAP": 5e9},
				{"TRADE_DATE": "2025-04-01 00:00:00", "PE_TTM": 11.0, "ROE_AVG": 15.0, "TOTAL_MARKET_CAP": 4.9e9},
			}))
		default:
			t.Errorf("unexpected reportName %q", r.URL.Query().Get("reportName"))
		}
	})

	client, _ := newTestClient(t, handler, false)

	fd := client.FetchFundamentals(context.Background(), "600000")
	require.NotNil(t, fd)

	assert.Empty(t, fd.Income, "failed report leaves an empty table")

	require.Len(t, fd.Balance, 1)
	assert.Equal(t, 2000.0, fd.Balance[0].TotalAssets)

	require.Len(t, fd.CashFlow, 1)
	assert.Equal(t, 30.0, fd.CashFlow[0].NetCashOperate)

	require.Len(t, fd.Valuation, 2)
	assert.True(t, fd.Valuation[0].TradeDate.Before(fd.Valuation[1].TradeDate), "rows sorted ascending")
	assert.True(t, math.IsNaN(fd.Valuation[0].PB), "missing column becomes NaN")
	assert.Equal(t, 1.1, fd.Valuation[1].PB)
}

func TestFetchFundamentalsAllFailedNotCached(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "oops", http.StatusInternalServerError)
	})

	client, _ := newTestClient(t, handler, true)

	fd := client.FetchFundamentals(context.Background(), "600000")
	require.NotNil(t, fd)
	assert.True(t, fd.Empty())

	client.FetchFundamentals(context.Background(), "600000")
	assert.Equal(t, int64(8), calls.Load(), "empty package is fetched again")
}

func TestFetchFundamentalsCached(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, reportPayload([]map[string]any{{
			"REPORT_DATE":      "2025-03-31 00:00:00",
			"TRADE_DATE":       "2025-03-31 00:00:00",
			"TOTAL_ASSETS":     2000.0,
			"NETCASH_OPERATE":  30.0,
			"PE_TTM":           12.0,
			"PB_MRQ":           1.1,
			"ROE_AVG":          16.0,
			"TOTAL_MARKET_CAP": 5e9,
		}}))
	})

	client, _ := newTestClient(t, handler, true)

	first := client.FetchFundamentals(context.Background(), "600000")
	require.False(t, first.Empty())
	assert.Equal(t, int64(4), calls.Load())

	second := client.FetchFundamentals(context.Background(), "600000")
	assert.Equal(t, int64(4), calls.Load(), "second call served from cache")
	assert.Equal(t, first.Valuation, second.Valuation)
}

func TestParseReportDateLayouts(t *testing.T) {
	d, err := parseReportDate("2025-03-31 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), d)

	d, err = parseReportDate("2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = parseReportDate("31/03/2025")
	require.Error(t, err)
}
