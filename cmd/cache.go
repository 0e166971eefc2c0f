package cmd

import (
	"fmt"

	"github.com/guoqi2046/aselect/cache"
	"github.com/guoqi2046/aselect/config"
)

// ClearCache 删除全部缓存文件
func ClearCache(cfg *config.Config) error {
	store, err := cache.NewStore(cfg.Base.CacheDir)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	fmt.Printf("🧹 已清空缓存目录 %s\n", cfg.Base.CacheDir)
	return nil
}

// ClearCacheOlderThan 删除指定天数之前的缓存文件
func ClearCacheOlderThan(cfg *config.Config, days int) error {
	if days <= 0 {
		return fmt.Errorf("days must be positive, got %d", days)
	}

	store, err := cache.NewStore(cfg.Base.CacheDir)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	removed, err := store.ClearOlderThan(days)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	fmt.Printf("🧹 已删除 %d 个超过 %d 天的缓存文件\n", removed, days)
	return nil
}
