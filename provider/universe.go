package provider

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/guoqi2046/aselect/model"
)

// 沪深京 A 股
const universeFS = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"

const universePageSize = 1000

type clistResponse struct {
	Data *struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		} `json:"diff"`
	} `json:"data"`
}

// FetchUniverse 获取全部 A 股列表，按日缓存。
// 失败对整个运行是致命的，由调用方终止。
func (c *Client) FetchUniverse(ctx context.Context) ([]model.StockInfo, error) {
	today := time.Now().Format("20060102")
	if c.store != nil {
		if list, ok := c.store.GetUniverse(today); ok {
			return list, nil
		}
	}

	var list []model.StockInfo
	for page := 1; ; page++ {
		c.throttle()

		u := fmt.Sprintf("%s/api/qt/clist/get?pn=%d&pz=%d&po=0&fid=f12&fs=%s&fields=f12,f14",
			c.QuoteBase, page, universePageSize, url.QueryEscape(universeFS))

		var resp clistResponse
		if err := c.getJSON(ctx, u, &resp); err != nil {
			return nil, fmt.Errorf("fetch stock list page %d: %w", page, err)
		}
		if resp.Data == nil || len(resp.Data.Diff) == 0 {
			break
		}

		for _, row := range resp.Data.Diff {
			if row.Code == "" {
				continue
			}
			list = append(list, model.StockInfo{Code: row.Code, Name: row.Name})
		}

		if len(resp.Data.Diff) < universePageSize {
			break
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("stock list is empty")
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })

	if c.store != nil {
		c.store.PutUniverse(today, list)
	}
	return list, nil
}
