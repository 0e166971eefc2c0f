package clickhouse

import (
	"fmt"
	"net/url"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/guoqi2046/aselect/model"
)

// Driver ClickHouse 结果库。表为追加写，按运行日期分区，
// 同一天重复运行时以 created_at 最新的一批为准。
type Driver struct {
	dsn string
	db  *sqlx.DB
}

// NewDriver 解析 clickhouse:// URI，补全默认端口和库名
func NewDriver(u *url.URL) (*Driver, error) {
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("clickhouse host is required")
	}

	port := u.Port()
	if port == "" {
		port = "9000"
	}
	u.Host = fmt.Sprintf("%s:%s", host, port)

	if u.Path == "" || u.Path == "/" {
		u.Path = "/default"
	}

	return &Driver{dsn: u.String()}, nil
}

func (d *Driver) Connect() error {
	db, err := sqlx.Open("clickhouse", d.dsn)
	if err != nil {
		return fmt.Errorf("open clickhouse: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("clickhouse ping failed: %w", err)
	}

	d.db = db
	return nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}

func (d *Driver) InitSchema() error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS strategy_matches (
			run_date   Date,
			strategy   String,
			code       String,
			name       String,
			created_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(run_date)
		ORDER BY (run_date, strategy, code)`,
		`CREATE TABLE IF NOT EXISTS run_stats (
			run_date   Date,
			total      Int32,
			success    Int64,
			fail       Int64,
			elapsed_ms Int64,
			created_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(run_date)
		ORDER BY (run_date, created_at)`,
	}

	for _, schema := range schemas {
		if _, err := d.db.Exec(schema); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (d *Driver) SaveMatches(runDate time.Time, strategyName string, matches []model.StrategyMatch) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO strategy_matches (run_date, strategy, code, name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		if _, err := stmt.Exec(runDate, strategyName, m.Code, m.Name); err != nil {
			return fmt.Errorf("insert match %s: %w", m.Code, err)
		}
	}

	return tx.Commit()
}

func (d *Driver) SaveRunStats(runDate time.Time, stats model.RunStats, elapsed time.Duration) error {
	_, err := d.db.Exec(
		`INSERT INTO run_stats (run_date, total, success, fail, elapsed_ms) VALUES (?, ?, ?, ?, ?)`,
		runDate, stats.Total, stats.Success, stats.Fail, elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run stats: %w", err)
	}
	return nil
}
