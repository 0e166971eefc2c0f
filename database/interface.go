package database

import (
	"time"

	"github.com/guoqi2046/aselect/model"
)

// ResultRepository 选股结果库。用于把每次运行的命中列表与
// 处理统计落库，便于跨日回查。
type ResultRepository interface {
	Connect() error
	Close() error

	InitSchema() error

	SaveMatches(runDate time.Time, strategyName string, matches []model.StrategyMatch) error
	SaveRunStats(runDate time.Time, stats model.RunStats, elapsed time.Duration) error
}
