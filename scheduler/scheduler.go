package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/indicator"
	"github.com/guoqi2046/aselect/model"
	"github.com/guoqi2046/aselect/strategy"
)

// DataSource 调度器依赖的数据入口，由网关实现
type DataSource interface {
	FetchHistory(ctx context.Context, symbol, startDate, endDate, adjust string) ([]model.Bar, error)
	FetchFundamentals(ctx context.Context, symbol string) *model.Fundamentals
}

// Result 一次选股运行的聚合结果。Matches 对每个启用的策略都有条目，
// 未选出股票的策略为空列表而不是缺失。
type Result struct {
	Matches  map[string][]model.StrategyMatch
	Stats    model.RunStats
	Duration time.Duration
}

// Runner 有界并发的选股调度器。全部股票一次性提交，按完成顺序收集，
// 单只股票的失败只计入失败数，不影响其余股票。
type Runner struct {
	source     DataSource
	strategies []strategy.Strategy
	cfg        *config.Config

	// 启用的策略是否需要基本面数据，运行开始时决定一次
	needFundamentals bool

	workers    int
	retryCount int
	retryPause time.Duration

	// 成功 / 失败计数独立于结果收集，避免争用
	success atomic.Int64
	fail    atomic.Int64
}

// New 创建调度器，启用的策略集合由调用方解析好传入
func New(source DataSource, strategies []strategy.Strategy, cfg *config.Config) *Runner {
	return &Runner{
		source:           source,
		strategies:       strategies,
		cfg:              cfg,
		needFundamentals: strategy.NeedFundamentals(strategies),
		workers:          cfg.Base.MaxWorkers,
		retryCount:       cfg.Base.RetryCount,
		retryPause:       time.Duration(cfg.Base.RetryPauseSec * float64(time.Second)),
	}
}

type outcome struct {
	stock   model.StockInfo
	matched []string
	failed  bool
}

// Screen 对整个股票列表执行选股。结果按到达顺序累积，
// 不保证与提交顺序一致。
func (r *Runner) Screen(ctx context.Context, universe []model.StockInfo, startDate, endDate string) (*Result, error) {
	startTime := time.Now()

	matches := make(map[string][]model.StrategyMatch, len(r.strategies))
	for _, s := range r.strategies {
		matches[s.Name] = []model.StrategyMatch{}
	}

	if len(universe) == 0 {
		return &Result{Matches: matches, Duration: time.Since(startTime)}, nil
	}

	r.success.Store(0)
	r.fail.Store(0)

	resultChan := make(chan outcome, r.workers*4)
	sem := make(chan struct{}, r.workers)

	// 单一收集协程独占结果映射，工作协程不持锁
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		processed := 0
		for out := range resultChan {
			processed++
			if processed%500 == 0 {
				log.Printf("[INFO] progress %d/%d", processed, len(universe))
			}
			if out.failed {
				continue
			}
			for _, name := range out.matched {
				log.Printf("[INFO] stock %s(%s) matched strategy %s", out.stock.Code, out.stock.Name, name)
				matches[name] = append(matches[name], model.StrategyMatch{
					Code: out.stock.Code,
					Name: out.stock.Name,
				})
			}
		}
	}()

	var workerWg sync.WaitGroup
	for _, stock := range universe {
		workerWg.Add(1)

		go func(stock model.StockInfo) {
			defer workerWg.Done()
			defer func() {
				// 处理单只股票时的意外错误在此兜底，只计为失败
				if rec := recover(); rec != nil {
					log.Printf("[ERROR] panic processing %s(%s): %v", stock.Code, stock.Name, rec)
					r.fail.Add(1)
					resultChan <- outcome{stock: stock, failed: true}
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			matched, err := r.processOne(ctx, stock, startDate, endDate)
			if err != nil {
				log.Printf("[WARN] skip stock %s(%s): %v", stock.Code, stock.Name, err)
				r.fail.Add(1)
				resultChan <- outcome{stock: stock, failed: true}
				return
			}

			r.success.Add(1)
			resultChan <- outcome{stock: stock, matched: matched}
		}(stock)
	}

	workerWg.Wait()
	close(resultChan)
	collectorWg.Wait()

	return &Result{
		Matches: matches,
		Stats: model.RunStats{
			Total:   len(universe),
			Success: r.success.Load(),
			Fail:    r.fail.Load(),
		},
		Duration: time.Since(startTime),
	}, nil
}

// processOne 单只股票的处理流程：取历史行情（带重试）、计算指标、
// 逐一评估启用的策略，返回命中的策略名。
func (r *Runner) processOne(ctx context.Context, stock model.StockInfo, startDate, endDate string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars := r.fetchWithRetry(ctx, stock.Code, startDate, endDate)
	if len(bars) == 0 {
		return nil, fmt.Errorf("history is empty after %d attempts", r.retryCount)
	}

	frame := indicator.Enrich(bars)

	var fd *model.Fundamentals
	if r.needFundamentals {
		fd = r.source.FetchFundamentals(ctx, stock.Code)
	}

	in := strategy.Input{Frame: frame, Fundamentals: fd}
	var matched []string
	for _, s := range r.strategies {
		if s.Match(in, &r.cfg.Strategy) {
			matched = append(matched, s.Name)
		}
	}
	return matched, nil
}

// fetchWithRetry 历史行情为空或出错时按固定间隔重试
func (r *Runner) fetchWithRetry(ctx context.Context, code, startDate, endDate string) []model.Bar {
	var bars []model.Bar

	for attempt := 0; attempt < r.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.retryPause):
			}
		}

		var err error
		bars, err = r.source.FetchHistory(ctx, code, startDate, endDate, r.cfg.Data.Adjust)
		if err != nil {
			log.Printf("[WARN] fetch history %s attempt %d: %v", code, attempt+1, err)
			continue
		}
		if len(bars) > 0 {
			return bars
		}
	}
	return bars
}
