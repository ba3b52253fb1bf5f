package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pingpair/models"
	"pingpair/utils"
)

// SnapshotStore is the persistence hook for the state container.
// Load returns (nil, nil) when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// GormSnapshotStore keeps one state_snapshots row per key.
type GormSnapshotStore struct {
	DB  *gorm.DB
	Key string
}

func NewGormSnapshotStore(db *gorm.DB, key string) *GormSnapshotStore {
	return &GormSnapshotStore{DB: db, Key: key}
}

func (s *GormSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	var row models.StateSnapshot
	err := s.DB.WithContext(ctx).Where(&models.StateSnapshot{Key: s.Key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", s.Key, err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(row.Payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", s.Key, err)
	}
	return &snap, nil
}

func (s *GormSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	row := models.StateSnapshot{
		Key:     s.Key,
		Payload: string(payload),
		Version: snap.Version,
		SavedAt: savedAt,
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "version", "saved_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", s.Key, err)
	}
	return nil
}

// ObjectStore is the subset of utils.R2Client used for snapshots.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// ObjectSnapshotStore keeps the snapshot as one JSON object in a bucket.
type ObjectSnapshotStore struct {
	Objects ObjectStore
	Key     string
}

func NewObjectSnapshotStore(objects ObjectStore, key string) *ObjectSnapshotStore {
	return &ObjectSnapshotStore{Objects: objects, Key: key}
}

func (s *ObjectSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := s.Objects.GetObject(ctx, s.Key)
	if errors.Is(err, utils.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot object %q: %w", s.Key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot object %q: %w", s.Key, err)
	}
	return &snap, nil
}

func (s *ObjectSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.Objects.PutObject(ctx, s.Key, data, "application/json"); err != nil {
		return fmt.Errorf("save snapshot object %q: %w", s.Key, err)
	}
	return nil
}
