// models/score_event.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Score event reasons
const (
	ReasonJoin             = "join"
	ReasonInterestAdded    = "interest_added"
	ReasonPairingCompleted = "pairing_completed"
	ReasonManualAdjustment = "manual_adjustment"
)

// ScoreEvent is one applied change to a user's Strix score.
// Applied is the delta that actually landed after clamping at zero.
type ScoreEvent struct {
	UserID   string    `json:"user_id"`
	Delta    int64     `json:"delta"`
	Applied  int64     `json:"applied"`
	Reason   string    `json:"reason"`
	NewScore uint64    `json:"new_score"`
	At       time.Time `json:"at"`
}

// ScoreEventRecord is the audit row written by services.GormScoreAudit.
type ScoreEventRecord struct {
	ID       string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID   string    `gorm:"index;not null" json:"user_id"`
	Delta    int64     `gorm:"not null" json:"delta"`
	Applied  int64     `gorm:"not null" json:"applied"`
	Reason   string    `gorm:"type:varchar(64);not null" json:"reason"`
	NewScore uint64    `gorm:"not null" json:"new_score"`
	At       time.Time `gorm:"index;not null" json:"at"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
