package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/guoqi2046/aselect/cache"
	"github.com/guoqi2046/aselect/config"
)

const (
	defaultQuoteBase = "https://push2.eastmoney.com"
	defaultHisBase   = "https://push2his.eastmoney.com"
	defaultDataBase  = "https://datacenter-web.eastmoney.com"
)

// Client 东方财富数据网关。所有远程请求前加随机延迟以降低请求频率，
// 原始字段在这一层统一为标准列名，缓存未命中时才访问远端。
type Client struct {
	http  *http.Client
	store *cache.Store

	delayMin time.Duration
	delayMax time.Duration

	// 接口基址，测试时可指向本地服务
	QuoteBase string
	HisBase   string
	DataBase  string
}

// NewClient 创建网关，store 为 nil 时不使用缓存
func NewClient(cfg *config.Config, store *cache.Store) *Client {
	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		store:     store,
		delayMin:  time.Duration(cfg.Base.RequestDelayMin * float64(time.Second)),
		delayMax:  time.Duration(cfg.Base.RequestDelayMax * float64(time.Second)),
		QuoteBase: defaultQuoteBase,
		HisBase:   defaultHisBase,
		DataBase:  defaultDataBase,
	}
}

// throttle 在远程请求前随机等待
func (c *Client) throttle() {
	if c.delayMax <= 0 {
		return
	}
	d := c.delayMin
	if span := c.delayMax - c.delayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	time.Sleep(d)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
