package services

import (
	"fmt"
	"math"
	"time"

	"pingpair/models"
)

// tierOrder lists tiers from lowest to highest threshold.
var tierOrder = []models.Tier{
	models.TierNewcomer,
	models.TierExplorer,
	models.TierConnector,
	models.TierNetworker,
	models.TierGlobalAmbassador,
}

// TierOf maps a cumulative score to its tier.
// Ranges are inclusive-low/exclusive-high; the top tier is unbounded.
func TierOf(score uint64) models.Tier {
	for i := len(tierOrder) - 1; i >= 0; i-- {
		if score >= models.TierThresholds[tierOrder[i]] {
			return tierOrder[i]
		}
	}
	return models.TierNewcomer
}

// NextTier returns the tier above score and the points still missing.
// ok is false at the top tier.
func NextTier(score uint64) (tier models.Tier, missing uint64, ok bool) {
	current := TierOf(score)
	if current == models.TierGlobalAmbassador {
		return current, 0, false
	}
	next := current + 1
	return next, models.TierThresholds[next] - score, true
}

// ScoreLedger applies Strix score events to profiles held by the directory.
// Applied events are buffered until drained by the owner of the state.
type ScoreLedger struct {
	users   *UserDirectory
	now     func() time.Time
	pending []models.ScoreEvent
}

func NewScoreLedger(users *UserDirectory, now func() time.Time) *ScoreLedger {
	if now == nil {
		now = time.Now
	}
	return &ScoreLedger{users: users, now: now}
}

// ApplyEvent adds delta to the user's score. The result is clamped at zero
// and saturates at the top of the range.
func (l *ScoreLedger) ApplyEvent(userID string, delta int64, reason string) (models.ScoreEvent, error) {
	u, err := l.users.profile(userID)
	if err != nil {
		return models.ScoreEvent{}, err
	}
	if reason == "" {
		return models.ScoreEvent{}, fmt.Errorf("%w: score event reason is required", ErrInvalidInput)
	}

	old := u.Score
	u.Score = addClamped(old, delta)

	ev := models.ScoreEvent{
		UserID:   userID,
		Delta:    delta,
		Applied:  appliedDelta(old, u.Score),
		Reason:   reason,
		NewScore: u.Score,
		At:       l.now(),
	}
	l.pending = append(l.pending, ev)
	return ev, nil
}

// recordJoin logs the starting grant without touching the score, which the
// directory already initialised.
func (l *ScoreLedger) recordJoin(u models.UserProfile) {
	l.pending = append(l.pending, models.ScoreEvent{
		UserID:   u.ID,
		Delta:    int64(u.Score),
		Applied:  int64(u.Score),
		Reason:   models.ReasonJoin,
		NewScore: u.Score,
		At:       l.now(),
	})
}

// drain hands over the buffered events and resets the buffer.
func (l *ScoreLedger) drain() []models.ScoreEvent {
	out := l.pending
	l.pending = nil
	return out
}

func addClamped(score uint64, delta int64) uint64 {
	if delta >= 0 {
		d := uint64(delta)
		if score > math.MaxUint64-d {
			return math.MaxUint64
		}
		return score + d
	}
	// -math.MinInt64 overflows int64, go through uint64 instead.
	d := uint64(-(delta + 1)) + 1
	if d >= score {
		return 0
	}
	return score - d
}

func appliedDelta(old, updated uint64) int64 {
	if updated >= old {
		diff := updated - old
		if diff > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(diff)
	}
	diff := old - updated
	if diff > math.MaxInt64 {
		return math.MinInt64
	}
	return -int64(diff)
}
