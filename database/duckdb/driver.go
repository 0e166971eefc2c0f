package duckdb

import (
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/guoqi2046/aselect/model"
)

// Driver DuckDB 结果库，单文件存储，适合本机运行
type Driver struct {
	dsn string
	db  *sqlx.DB
}

func NewDriver(dsn string) *Driver {
	return &Driver{dsn: dsn}
}

func (d *Driver) Connect() error {
	db, err := sqlx.Open("duckdb", d.dsn)
	if err != nil {
		return fmt.Errorf("open duckdb %s: %w", d.dsn, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	d.db = db
	return nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}

func (d *Driver) InitSchema() error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS strategy_matches (
			run_date DATE,
			strategy VARCHAR,
			code     VARCHAR,
			name     VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS run_stats (
			run_date   DATE,
			total      INTEGER,
			success    BIGINT,
			fail       BIGINT,
			elapsed_ms BIGINT,
			created_at TIMESTAMP
		)`,
	}

	for _, schema := range schemas {
		if _, err := d.db.Exec(schema); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// SaveMatches 同一运行日期加策略的旧记录先删后插，重复运行以最后一次为准
func (d *Driver) SaveMatches(runDate time.Time, strategyName string, matches []model.StrategyMatch) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM strategy_matches WHERE run_date = ? AND strategy = ?`,
		runDate, strategyName,
	); err != nil {
		return fmt.Errorf("clear old matches: %w", err)
	}

	for _, m := range matches {
		if _, err := tx.Exec(
			`INSERT INTO strategy_matches (run_date, strategy, code, name) VALUES (?, ?, ?, ?)`,
			runDate, strategyName, m.Code, m.Name,
		); err != nil {
			return fmt.Errorf("insert match %s: %w", m.Code, err)
		}
	}

	return tx.Commit()
}

func (d *Driver) SaveRunStats(runDate time.Time, stats model.RunStats, elapsed time.Duration) error {
	_, err := d.db.Exec(
		`INSERT INTO run_stats (run_date, total, success, fail, elapsed_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runDate, stats.Total, stats.Success, stats.Fail, elapsed.Milliseconds(), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert run stats: %w", err)
	}
	return nil
}
