package provider

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guoqi2046/aselect/model"
	"github.com/guoqi2046/aselect/utils"
)

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// FetchHistory 获取日线历史行情并标准化为升序 Bar 序列。
// 返回空序列不是错误，重试由调度器负责。
func (c *Client) FetchHistory(ctx context.Context, symbol, startDate, endDate, adjust string) ([]model.Bar, error) {
	if c.store != nil {
		if bars, ok := c.store.GetHistory(symbol, startDate, endDate, adjust); ok {
			return bars, nil
		}
	}

	c.throttle()

	var fqt int
	switch adjust {
	case "qfq":
		fqt = 1
	case "hfq":
		fqt = 2
	default:
		fqt = 0
	}

	u := fmt.Sprintf("%s/api/qt/stock/kline/get?secid=%s&klt=101&fqt=%d&beg=%s&end=%s"+
		"&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
		c.HisBase, utils.SecID(symbol), fqt, startDate, endDate)

	var resp klineResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}
	if resp.Data == nil || len(resp.Data.Klines) == 0 {
		return nil, nil
	}

	bars := make([]model.Bar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			// 日期不可解析的行直接丢弃
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if c.store != nil {
		c.store.PutHistory(symbol, startDate, endDate, adjust, bars)
	}
	return bars, nil
}

// parseKline 解析 K 线字符串：
// 日期,开盘,收盘,最高,最低,成交量,成交额,振幅,涨跌幅,涨跌额,换手率
func parseKline(line string) (model.Bar, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 9 {
		return model.Bar{}, fmt.Errorf("kline has %d fields", len(fields))
	}

	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return model.Bar{}, fmt.Errorf("parse kline date %q: %w", fields[0], err)
	}

	return model.Bar{
		Date:   date,
		Open:   floatField(fields[1]),
		Close:  floatField(fields[2]),
		High:   floatField(fields[3]),
		Low:    floatField(fields[4]),
		Volume: floatField(fields[5]),
		Amount: floatField(fields[6]),
		PctChg: floatField(fields[8]),
	}, nil
}

func floatField(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
