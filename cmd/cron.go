package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/guoqi2046/aselect/config"
)

// RunCron 按配置的 cron 表达式定时执行选股，收到退出信号后停止。
// 上一轮未跑完时跳过本轮，避免重复请求行情接口。
func RunCron(ctx context.Context, cfg *config.Config) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.AddFunc(cfg.Base.CronSpec, func() {
		if err := Select(ctx, cfg); err != nil {
			log.Printf("[WARN] scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", cfg.Base.CronSpec, err)
	}

	fmt.Printf("⏰ 定时任务已启动，计划: %s\n", cfg.Base.CronSpec)
	c.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		fmt.Printf("\n👋 收到信号 %v，停止定时任务\n", s)
	case <-ctx.Done():
	}

	<-c.Stop().Done()
	return nil
}
