package model

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/pkg/db"
	"github.com/thep200/github-portfolio-sync/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotHistory keeps one row per published snapshot.
type SnapshotHistory struct {
	Model
	ID            uint      `json:"id" gorm:"column:id;primaryKey"`
	Login         string    `json:"login" gorm:"column:login;type:varchar(255);not null;uniqueIndex:idx_login_captured"`
	TotalStars    int       `json:"total_stars" gorm:"column:total_stars;default:0"`
	TotalForks    int       `json:"total_forks" gorm:"column:total_forks;default:0"`
	RepoCount     int       `json:"repo_count" gorm:"column:repo_count;default:0"`
	FollowerCount int       `json:"follower_count" gorm:"column:follower_count;default:0"`
	PinnedCount   int       `json:"pinned_count" gorm:"column:pinned_count;default:0"`
	Tier          string    `json:"tier" gorm:"column:tier;type:varchar(64)"`
	CapturedAt    time.Time `json:"captured_at" gorm:"column:captured_at;not null;uniqueIndex:idx_login_captured"`
}

func NewSnapshotHistory(config *cfg.Config, logger log.Logger, db *db.Mysql) (*SnapshotHistory, error) {
	return &SnapshotHistory{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}, nil
}

func (h *SnapshotHistory) TableName() string {
	return "snapshot_histories"
}

func historyRow(msg SnapshotMessage, now time.Time) SnapshotHistory {
	row := SnapshotHistory{
		Login:         TruncateString(msg.Login, 250),
		TotalStars:    msg.TotalStars,
		TotalForks:    msg.TotalForks,
		RepoCount:     msg.RepoCount,
		FollowerCount: msg.FollowerCount,
		PinnedCount:   msg.PinnedCount,
		Tier:          TruncateString(msg.Tier, 60),
		CapturedAt:    msg.CapturedAt,
	}
	row.CreatedAt = now
	row.UpdatedAt = now
	return row
}

// CreateBatch stores messages, ignoring duplicates of (login, captured_at).
func (h *SnapshotHistory) CreateBatch(messages []SnapshotMessage) error {
	if len(messages) == 0 {
		return nil
	}

	db, err := h.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	now := time.Now()
	rows := make([]SnapshotHistory, 0, len(messages))
	for _, msg := range messages {
		rows = append(rows, historyRow(msg, now))
	}

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 100)
		if result.Error != nil {
			return fmt.Errorf("failed to batch create snapshot histories: %w", result.Error)
		}
		h.Logger.Info(context.Background(), "Stored %d snapshot histories", result.RowsAffected)
		return nil
	})
}

// Latest returns the most recent rows for login.
func (h *SnapshotHistory) Latest(login string, limit int) ([]SnapshotHistory, error) {
	db, err := h.Mysql.Db()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	var rows []SnapshotHistory
	err = db.Where("login = ?", login).Order("captured_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
