package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"reflect"
	"time"
)

// CSVWriter 按结构体 col 标签输出 CSV 的通用写入器
type CSVWriter[T any] struct {
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	columns       []column
}

type column struct {
	index  int
	header string
	isTime bool
}

// NewCSVWriter 创建文件并解析 T 的列信息
func NewCSVWriter[T any](filename string) (*CSVWriter[T], error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	cols, err := resolveColumns[T]()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &CSVWriter[T]{
		file:    f,
		writer:  csv.NewWriter(f),
		columns: cols,
	}, nil
}

func resolveColumns[T any]() ([]column, error) {
	var t T
	typ := reflect.TypeOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("generic type T must be a struct")
	}

	cols := make([]column, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		header := field.Tag.Get("col")
		if header == "" {
			header = field.Name
		}

		cols = append(cols, column{
			index:  i,
			header: header,
			isTime: field.Type == reflect.TypeOf(time.Time{}),
		})
	}
	return cols, nil
}

// Write 写入一批数据，首次调用时先写表头
func (cw *CSVWriter[T]) Write(data []T) error {
	if len(data) == 0 {
		return nil
	}

	if !cw.headerWritten {
		headers := make([]string, len(cw.columns))
		for i, col := range cw.columns {
			headers[i] = col.header
		}
		if err := cw.writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		cw.headerWritten = true
	}

	record := make([]string, len(cw.columns))
	for _, item := range data {
		val := reflect.ValueOf(item)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}

		for i, col := range cw.columns {
			fieldVal := val.Field(col.index)

			if col.isTime {
				t := fieldVal.Interface().(time.Time)
				if t.IsZero() {
					record[i] = ""
				} else {
					record[i] = t.Format("2006-01-02")
				}
				continue
			}

			record[i] = fmt.Sprint(fieldVal.Interface())
		}

		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}

func (cw *CSVWriter[T]) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("failed to flush: %w", err)
	}
	return cw.file.Close()
}
