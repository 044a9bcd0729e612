package model

import "time"

// CacheEntry is a key/value row used by the MySQL store backend.
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;type:varchar(191);primaryKey"`
	Value     []byte    `gorm:"column:value;type:longblob"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}
