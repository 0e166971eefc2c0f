package cmd

import (
	"fmt"
	"os"

	"github.com/guoqi2046/aselect/config"
)

// SaveDefaultConfig 把内置默认配置写成 YAML 文件，已存在时拒绝覆盖
func SaveDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	if err := config.SaveDefault(path); err != nil {
		return fmt.Errorf("save default config: %w", err)
	}

	fmt.Printf("📝 默认配置已保存至 %s\n", path)
	return nil
}

// ShowConfig 打印当前生效的配置（默认值、文件和环境变量合并后的结果）
func ShowConfig(cfg *config.Config) error {
	out, err := cfg.Dump()
	if err != nil {
		return fmt.Errorf("dump config: %w", err)
	}

	fmt.Print(out)
	return nil
}
