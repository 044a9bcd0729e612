package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MysqlStore struct {
	mysql *db.Mysql
}

func NewMysqlStore(mysql *db.Mysql) (*MysqlStore, error) {
	if err := mysql.Migrate(&model.CacheEntry{}); err != nil {
		return nil, fmt.Errorf("mysql: migrating cache entries: %w", err)
	}
	return &MysqlStore{mysql: mysql}, nil
}

func (s *MysqlStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := s.mysql.Db()
	if err != nil {
		return nil, false, err
	}

	var entry model.CacheEntry
	err = db.WithContext(ctx).Where("cache_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mysql: reading %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *MysqlStore) Write(ctx context.Context, key string, value []byte) error {
	db, err := s.mysql.Db()
	if err != nil {
		return err
	}

	entry := &model.CacheEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("mysql: writing %s: %w", key, err)
	}
	return nil
}

func (s *MysqlStore) Close() error {
	return s.mysql.Close()
}
