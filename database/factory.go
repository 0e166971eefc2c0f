package database

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/guoqi2046/aselect/database/clickhouse"
	"github.com/guoqi2046/aselect/database/duckdb"
)

// NewRepository 按 URI 选择结果库后端。
// clickhouse:// 开头走 ClickHouse，其余按 DuckDB 文件路径处理。
func NewRepository(uri string) (ResultRepository, error) {
	if uri == "" {
		return nil, fmt.Errorf("database uri is empty")
	}

	if strings.HasPrefix(uri, "clickhouse://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid clickhouse uri: %w", err)
		}
		return clickhouse.NewDriver(u)
	}

	return duckdb.NewDriver(uri), nil
}
