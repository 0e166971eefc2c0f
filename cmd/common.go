package cmd

import "time"

// DefaultConfigPath 未指定 --config 时读取的配置文件
const DefaultConfigPath = "config.yaml"

const dateLayout = "20060102"

// DateRange 根据回看天数计算历史行情的起止日期
func DateRange(historyDays int) (startDate, endDate string) {
	now := time.Now()
	endDate = now.Format(dateLayout)
	startDate = now.AddDate(0, 0, -historyDays).Format(dateLayout)
	return startDate, endDate
}

// Today 返回当天日期，用于结果文件命名和落库
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
