// models/snapshot.go
package models

import "time"

// StateSnapshot stores one serialized state container per key.
// Table name: state_snapshots
type StateSnapshot struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)" json:"key"`
	Payload   string    `gorm:"type:text;not null" json:"payload"` // JSON encoded services.Snapshot
	Version   uint64    `gorm:"not null;default:0" json:"version"`
	SavedAt   time.Time `gorm:"not null" json:"saved_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
