package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guoqi2046/aselect/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   10.0 + float64(i),
			Close:  10.5 + float64(i),
			High:   11.0 + float64(i),
			Low:    9.5 + float64(i),
			Volume: 1000,
			Amount: 1e7,
			PctChg: 1.2,
		}
	}
	return bars
}

func sampleFundamentals() *model.Fundamentals {
	date := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	return &model.Fundamentals{
		Balance:   []model.BalanceRow{{ReportDate: date, TotalAssets: 2000, TotalCurrentAssets: 1000, TotalLiabilities: 400}},
		Income:    []model.IncomeRow{{ReportDate: date, TotalRevenue: 500, NetProfit: 50}},
		CashFlow:  []model.CashFlowRow{{ReportDate: date, NetCashOperate: 30}},
		Valuation: []model.ValuationRow{{TradeDate: date, PE: 12, PB: 1.1, ROE: 16, TotalMV: 5e9}},
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	bars := sampleBars(5)

	_, ok := store.GetHistory("600000", "20250101", "20250401", "qfq")
	assert.False(t, ok)

	store.PutHistory("600000", "20250101", "20250401", "qfq", bars)

	got, ok := store.GetHistory("600000", "20250101", "20250401", "qfq")
	require.True(t, ok)
	require.Len(t, got, 5)
	assert.Equal(t, bars[0].Close, got[0].Close)
	assert.Equal(t, bars[4].PctChg, got[4].PctChg)

	// 键包含日期范围和复权方式，任一不同都是未命中
	_, ok = store.GetHistory("600000", "20250101", "20250401", "hfq")
	assert.False(t, ok)
	_, ok = store.GetHistory("600000", "20250102", "20250401", "qfq")
	assert.False(t, ok)
}

func TestPutHistoryEmptyIsNoop(t *testing.T) {
	store := newTestStore(t)

	store.PutHistory("600000", "20250101", "20250401", "qfq", nil)

	_, ok := store.GetHistory("600000", "20250101", "20250401", "qfq")
	assert.False(t, ok)
}

func TestHistoryCorruptedFileIsMissAndRemoved(t *testing.T) {
	store := newTestStore(t)
	path := store.historyPath("600000", "20250101", "20250401", "qfq")
	require.NoError(t, os.WriteFile(path, []byte("not a parquet file"), 0644))

	_, ok := store.GetHistory("600000", "20250101", "20250401", "qfq")
	assert.False(t, ok)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupted file should be removed")
}

func TestUniverseRoundTrip(t *testing.T) {
	store := newTestStore(t)
	list := []model.StockInfo{
		{Code: "000001", Name: "平安银行"},
		{Code: "600000", Name: "浦发银行"},
	}

	_, ok := store.GetUniverse("20250301")
	assert.False(t, ok)

	store.PutUniverse("20250301", list)

	got, ok := store.GetUniverse("20250301")
	require.True(t, ok)
	assert.Equal(t, list, got)

	_, ok = store.GetUniverse("20250302")
	assert.False(t, ok)
}

func TestFundamentalsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	fd := sampleFundamentals()

	_, ok := store.GetFundamentals("600000")
	assert.False(t, ok)

	store.PutFundamentals("600000", fd)

	got, ok := store.GetFundamentals("600000")
	require.True(t, ok)
	assert.Equal(t, fd.Balance, got.Balance)
	assert.Equal(t, fd.Valuation, got.Valuation)
}

func TestFundamentalsEmptyIsNoop(t *testing.T) {
	store := newTestStore(t)

	store.PutFundamentals("600000", &model.Fundamentals{})

	_, ok := store.GetFundamentals("600000")
	assert.False(t, ok)
}

func TestFundamentalsExpired(t *testing.T) {
	store := newTestStore(t)

	store.putFundamentalsAt("600000", sampleFundamentals(), time.Now().Add(-25*time.Hour))

	_, ok := store.GetFundamentals("600000")
	assert.False(t, ok, "entry past TTL reads as a miss")

	// 覆盖写之后重新有效
	store.PutFundamentals("600000", sampleFundamentals())
	_, ok = store.GetFundamentals("600000")
	assert.True(t, ok)
}

func TestFundamentalsCorruptedFile(t *testing.T) {
	store := newTestStore(t)
	path := store.fundamentalPath("600000")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0644))

	_, ok := store.GetFundamentals("600000")
	assert.False(t, ok)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)
	store.PutHistory("600000", "20250101", "20250401", "qfq", sampleBars(3))
	store.PutUniverse("20250301", []model.StockInfo{{Code: "600000", Name: "浦发银行"}})
	store.PutFundamentals("600000", sampleFundamentals())

	require.NoError(t, store.ClearAll())

	_, ok := store.GetHistory("600000", "20250101", "20250401", "qfq")
	assert.False(t, ok)
	_, ok = store.GetUniverse("20250301")
	assert.False(t, ok)
	_, ok = store.GetFundamentals("600000")
	assert.False(t, ok)
}

func TestClearOlderThan(t *testing.T) {
	store := newTestStore(t)
	store.PutHistory("600000", "20250101", "20250401", "qfq", sampleBars(3))
	store.PutHistory("000001", "20250101", "20250401", "qfq", sampleBars(3))
	store.PutFundamentals("600000", sampleFundamentals())

	// 把其中两个文件的修改时间改到 10 天前
	old := time.Now().AddDate(0, 0, -10)
	oldHistory := store.historyPath("600000", "20250101", "20250401", "qfq")
	oldFundamental := store.fundamentalPath("600000")
	require.NoError(t, os.Chtimes(oldHistory, old, old))
	require.NoError(t, os.Chtimes(oldFundamental, old, old))

	removed, err := store.ClearOlderThan(7)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := store.GetHistory("600000", "20250101", "20250401", "qfq")
	assert.False(t, ok)
	_, ok = store.GetHistory("000001", "20250101", "20250401", "qfq")
	assert.True(t, ok, "recent entry survives")
}

func TestNewStoreCreatesLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewStore(dir)
	require.NoError(t, err)

	for _, kind := range []string{kindList, kindHistory, kindFundamental} {
		info, err := os.Stat(filepath.Join(dir, kind))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
