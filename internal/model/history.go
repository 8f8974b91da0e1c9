package model

import "time"

// HistoryEntry is one persisted analysis for a user
type HistoryEntry struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Barcode     string    `json:"barcode"`
	ProductName string    `json:"name"`
	Status      Status    `json:"status"`
	Score       int       `json:"score"`
	Timestamp   time.Time `json:"date"`
}

// HistoryStats summarizes a user's history
type HistoryStats struct {
	Total   int `json:"total"`
	Average int `json:"avg"`
	Safe    int `json:"safe"`
	Warning int `json:"warning"`
}
