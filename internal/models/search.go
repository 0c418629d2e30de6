package models

import "time"

// SearchHistory is the global popularity counter, keyed by the normalized
// query string. Writes are best-effort: a failed upsert never fails the
// search that triggered it.
type SearchHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SearchQuery string    `gorm:"size:255;uniqueIndex;not null" json:"search_query"`
	SearchCount int       `gorm:"default:1" json:"search_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSearchHistory is the per-user recent-searches log, appended alongside
// the global counter.
type UserSearchHistory struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"index;not null" json:"user_id"`
	SearchHistoryID uint           `gorm:"not null" json:"search_history_id"`
	SearchHistory   *SearchHistory `json:"search_history,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}
