// Package localstore is the embedded fallback backend: a sqlite file holding
// opaque JSON payloads under namespaced keys, whole-value replace-on-write.
package localstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Entry struct {
	Key       string    `gorm:"primaryKey;size:128;column:key"`
	Payload   []byte    `gorm:"column:payload"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Entry) TableName() string { return "kv_entries" }

type Store struct{ db *gorm.DB }

// Open creates or opens the backing sqlite file. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get returns the payload for key; ok is false when the key was never set.
func (s *Store) Get(ctx context.Context, key string) (payload []byte, ok bool, err error) {
	var e Entry
	res := s.db.WithContext(ctx).First(&e, "key = ?", key)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if res.Error != nil {
		return nil, false, res.Error
	}
	return e.Payload, true, nil
}

// Put replaces the whole value under key.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	e := Entry{Key: key, Payload: payload}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&e).Error
}
