package cache

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/guoqi2046/aselect/model"
)

// 缓存按数据种类分为三个子目录
const (
	kindList        = "list"
	kindHistory     = "history"
	kindFundamental = "fundamental"
)

// 基本面缓存的有效期，超过后按未命中处理
const fundamentalTTL = 24 * time.Hour

// Store 文件缓存。股票列表和历史行情为 parquet 文件，键中已含日期，
// 命中即有效；基本面为 gob 文件，读取时检查写入时间。
// 不同键的并发读写是安全的，同一键的竞争按后写覆盖处理。
type Store struct {
	dir string
}

// NewStore 创建缓存目录结构
func NewStore(dir string) (*Store, error) {
	for _, kind := range []string{kindList, kindHistory, kindFundamental} {
		if err := os.MkdirAll(filepath.Join(dir, kind), 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &Store{dir: dir}, nil
}

func (s *Store) historyPath(symbol, startDate, endDate, adjust string) string {
	name := fmt.Sprintf("%s_%s_%s_%s.parquet", symbol, startDate, endDate, adjust)
	return filepath.Join(s.dir, kindHistory, name)
}

func (s *Store) universePath(date string) string {
	return filepath.Join(s.dir, kindList, fmt.Sprintf("stock_list_%s.parquet", date))
}

func (s *Store) fundamentalPath(symbol string) string {
	return filepath.Join(s.dir, kindFundamental, symbol+".gob")
}

// GetHistory 读取历史行情缓存，未命中返回 false。
// 文件损坏时删除后按未命中处理。
func (s *Store) GetHistory(symbol, startDate, endDate, adjust string) ([]model.Bar, bool) {
	path := s.historyPath(symbol, startDate, endDate, adjust)
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}

	bars, err := parquet.ReadFile[model.Bar](path)
	if err != nil || len(bars) == 0 {
		log.Printf("[WARN] corrupted history cache %s: %v", path, err)
		os.Remove(path)
		return nil, false
	}
	return bars, true
}

// PutHistory 写入历史行情缓存，空数据不缓存
func (s *Store) PutHistory(symbol, startDate, endDate, adjust string, bars []model.Bar) {
	if len(bars) == 0 {
		return
	}

	path := s.historyPath(symbol, startDate, endDate, adjust)
	if err := parquet.WriteFile(path, bars); err != nil {
		log.Printf("[WARN] cache history for %s: %v", symbol, err)
		os.Remove(path)
	}
}

// GetUniverse 读取指定日期的股票列表缓存
func (s *Store) GetUniverse(date string) ([]model.StockInfo, bool) {
	path := s.universePath(date)
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}

	list, err := parquet.ReadFile[model.StockInfo](path)
	if err != nil || len(list) == 0 {
		log.Printf("[WARN] corrupted universe cache %s: %v", path, err)
		os.Remove(path)
		return nil, false
	}
	return list, true
}

// PutUniverse 写入股票列表缓存，空列表不缓存
func (s *Store) PutUniverse(date string, list []model.StockInfo) {
	if len(list) == 0 {
		return
	}

	path := s.universePath(date)
	if err := parquet.WriteFile(path, list); err != nil {
		log.Printf("[WARN] cache universe: %v", err)
		os.Remove(path)
	}
}

type fundamentalEntry struct {
	WrittenAt time.Time
	Data      model.Fundamentals
}

// GetFundamentals 读取基本面缓存。超过有效期的条目视为未命中，
// 但不主动删除，等待覆盖写或清理命令处理。
func (s *Store) GetFundamentals(symbol string) (*model.Fundamentals, bool) {
	path := s.fundamentalPath(symbol)
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}

	var entry fundamentalEntry
	err = gob.NewDecoder(f).Decode(&entry)
	f.Close()
	if err != nil {
		log.Printf("[WARN] corrupted fundamental cache %s: %v", path, err)
		os.Remove(path)
		return nil, false
	}

	if time.Since(entry.WrittenAt) >= fundamentalTTL {
		return nil, false
	}
	return &entry.Data, true
}

// PutFundamentals 写入基本面缓存并记录写入时间，空数据包不缓存
func (s *Store) PutFundamentals(symbol string, data *model.Fundamentals) {
	s.putFundamentalsAt(symbol, data, time.Now())
}

func (s *Store) putFundamentalsAt(symbol string, data *model.Fundamentals, writtenAt time.Time) {
	if data.Empty() {
		return
	}

	path := s.fundamentalPath(symbol)
	f, err := os.Create(path)
	if err != nil {
		log.Printf("[WARN] cache fundamentals for %s: %v", symbol, err)
		return
	}

	entry := fundamentalEntry{WrittenAt: writtenAt, Data: *data}
	err = gob.NewEncoder(f).Encode(&entry)
	f.Close()
	if err != nil {
		log.Printf("[WARN] cache fundamentals for %s: %v", symbol, err)
		os.Remove(path)
	}
}

// ClearAll 清空三类缓存
func (s *Store) ClearAll() error {
	for _, kind := range []string{kindList, kindHistory, kindFundamental} {
		dir := filepath.Join(s.dir, kind)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read cache dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return fmt.Errorf("remove cache file %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}

// ClearOlderThan 按文件修改时间清理三类缓存中超过 days 天的条目，
// 返回删除的文件数
func (s *Store) ClearOlderThan(days int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	count := 0

	for _, kind := range []string{kindList, kindHistory, kindFundamental} {
		dir := filepath.Join(s.dir, kind)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return count, fmt.Errorf("read cache dir %s: %w", dir, err)
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
					log.Printf("[WARN] remove expired cache %s: %v", e.Name(), err)
					continue
				}
				count++
			}
		}
	}
	return count, nil
}
