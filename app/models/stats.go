package models

// DailyStats represents a per-day count, used for import time series
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
