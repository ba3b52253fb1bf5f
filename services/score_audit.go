package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pingpair/models"
)

// GormScoreAudit appends applied score events to the score_event_records table.
type GormScoreAudit struct {
	DB *gorm.DB
}

func NewGormScoreAudit(db *gorm.DB) *GormScoreAudit {
	return &GormScoreAudit{DB: db}
}

func (a *GormScoreAudit) RecordScoreEvents(ctx context.Context, events []models.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]models.ScoreEventRecord, len(events))
	for i, ev := range events {
		rows[i] = models.ScoreEventRecord{
			ID:       uuid.NewString(),
			UserID:   ev.UserID,
			Delta:    ev.Delta,
			Applied:  ev.Applied,
			Reason:   ev.Reason,
			NewScore: ev.NewScore,
			At:       ev.At,
		}
	}
	if err := a.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("record %d score events: %w", len(rows), err)
	}
	return nil
}

// History returns the newest events for a user, newest first.
func (a *GormScoreAudit) History(ctx context.Context, userID string, limit int) ([]models.ScoreEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ScoreEventRecord
	err := a.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "at"}, Desc: true}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("score history for %q: %w", userID, err)
	}
	out := make([]models.ScoreEvent, len(rows))
	for i, r := range rows {
		out[i] = models.ScoreEvent{
			UserID:   r.UserID,
			Delta:    r.Delta,
			Applied:  r.Applied,
			Reason:   r.Reason,
			NewScore: r.NewScore,
			At:       r.At,
		}
	}
	return out, nil
}
