package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/guoqi2046/aselect/cache"
	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/database"
	"github.com/guoqi2046/aselect/model"
	"github.com/guoqi2046/aselect/provider"
	"github.com/guoqi2046/aselect/scheduler"
	"github.com/guoqi2046/aselect/strategy"
	"github.com/guoqi2046/aselect/utils"
)

// Select 执行一次完整的选股：取股票列表、并发处理、输出结果
func Select(ctx context.Context, cfg *config.Config) error {
	fmt.Println("📦 开始选股")

	if err := utils.CheckOutputDir(cfg.Base.OutputDir); err != nil {
		return err
	}

	store, err := cache.NewStore(cfg.Base.CacheDir)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	if !cfg.Base.UseCache {
		fmt.Println("🧹 缓存已禁用，清理历史缓存")
		if err := store.ClearAll(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}

	client := provider.NewClient(cfg, store)

	universe, err := client.FetchUniverse(ctx)
	if err != nil {
		// 没有股票列表就没有可调度的任务，直接终止
		return fmt.Errorf("fetch stock list: %w", err)
	}
	fmt.Printf("🐢 获取股票列表成功，共 %d 只\n", len(universe))

	universe = applyScope(universe, cfg.Data.Scope)
	fmt.Printf("🎯 本次处理 %d 只股票，线程数 %d\n", len(universe), cfg.Base.MaxWorkers)

	strategies, err := strategy.Enabled(cfg.Strategy.Active, cfg.Data.Fundamental.Enabled)
	if err != nil {
		return err
	}
	if len(strategies) == 0 {
		return fmt.Errorf("no strategy enabled (fundamentals acquisition may be disabled)")
	}

	startDate, endDate := DateRange(cfg.Data.HistoryDays)
	runner := scheduler.New(client, strategies, cfg)

	result, err := runner.Screen(ctx, universe, startDate, endDate)
	if err != nil {
		return fmt.Errorf("screen universe: %w", err)
	}

	if err := writeResults(cfg.Base.OutputDir, result); err != nil {
		return err
	}

	if cfg.Database.URI != "" {
		if err := persistResults(cfg.Database.URI, result); err != nil {
			// 落库失败不影响已生成的 CSV 结果
			log.Printf("[WARN] persist results: %v", err)
		}
	}

	fmt.Printf("🚀 选股完成！成功 %d 只，失败 %d 只，耗时 %.2f 秒\n",
		result.Stats.Success, result.Stats.Fail, result.Duration.Seconds())
	return nil
}

// applyScope 处理排除、包含与数量限制
func applyScope(universe []model.StockInfo, scope config.ScopeConfig) []model.StockInfo {
	if len(scope.ExcludeStocks) > 0 {
		excluded := make(map[string]bool, len(scope.ExcludeStocks))
		for _, code := range scope.ExcludeStocks {
			excluded[code] = true
		}
		kept := universe[:0]
		for _, s := range universe {
			if !excluded[s.Code] {
				kept = append(kept, s)
			}
		}
		universe = kept
		fmt.Printf("🙈 排除 %d 只股票后剩余 %d 只\n", len(scope.ExcludeStocks), len(universe))
	}

	if len(scope.IncludeStocks) > 0 {
		included := make(map[string]bool, len(scope.IncludeStocks))
		for _, code := range scope.IncludeStocks {
			included[code] = true
		}
		kept := universe[:0]
		for _, s := range universe {
			if included[s.Code] {
				kept = append(kept, s)
			}
		}
		universe = kept
		fmt.Printf("🔍 只处理指定的 %d 只股票\n", len(universe))
	}

	if scope.Limit > 0 && len(universe) > scope.Limit {
		universe = universe[:scope.Limit]
		fmt.Printf("✂️ 限制处理前 %d 只股票\n", scope.Limit)
	}
	return universe
}

// writeResults 每个启用的策略输出一个 CSV，文件按策略名加日期命名。
// 未选出股票的策略不生成文件，但仍然报告零命中。
func writeResults(outputDir string, result *scheduler.Result) error {
	date := Today().Format(dateLayout)

	for name, matches := range result.Matches {
		if len(matches) == 0 {
			fmt.Printf("📭 策略 %s 未选出股票\n", name)
			continue
		}

		path := filepath.Join(outputDir, fmt.Sprintf("%s_%s.csv", name, date))
		cw, err := utils.NewCSVWriter[model.StrategyMatch](path)
		if err != nil {
			return fmt.Errorf("create result file %s: %w", path, err)
		}
		if err := cw.Write(matches); err != nil {
			cw.Close()
			return fmt.Errorf("write result file %s: %w", path, err)
		}
		if err := cw.Close(); err != nil {
			return fmt.Errorf("close result file %s: %w", path, err)
		}
		fmt.Printf("💾 策略 %s 选出 %d 只股票，已保存至 %s\n", name, len(matches), path)
	}
	return nil
}

func persistResults(uri string, result *scheduler.Result) error {
	repo, err := database.NewRepository(uri)
	if err != nil {
		return err
	}
	if err := repo.Connect(); err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.InitSchema(); err != nil {
		return err
	}

	runDate := Today()
	for name, matches := range result.Matches {
		if err := repo.SaveMatches(runDate, name, matches); err != nil {
			return err
		}
	}
	if err := repo.SaveRunStats(runDate, result.Stats, result.Duration); err != nil {
		return err
	}

	fmt.Println("🗄️ 选股结果已落库")
	return nil
}
