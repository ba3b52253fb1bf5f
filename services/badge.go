package services

import (
	"time"

	"pingpair/models"
	"pingpair/utils"
)

type BadgeService struct {
	users    *UserDirectory
	triggers []models.BadgeType
	now      func() time.Time
	log      *utils.Logger
}

func NewBadgeService(users *UserDirectory, now func() time.Time, log *utils.Logger) *BadgeService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = utils.NopLogger()
	}
	return &BadgeService{users: users, triggers: models.BadgeTriggers, now: now, log: log}
}

// AutoAwardBadges checks all badge triggers for a user after a progress update
// and appends newly earned badges in trigger order. Each badge is earned once.
func (s *BadgeService) AutoAwardBadges(userID string) ([]models.Badge, error) {
	u, err := s.users.profile(userID)
	if err != nil {
		return nil, err
	}

	var awarded []models.Badge
	for _, trigger := range s.triggers {
		if u.HasBadge(trigger.Code) || !meetsThreshold(u, trigger.Threshold) {
			continue
		}
		badge := models.Badge{
			Code:        trigger.Code,
			Name:        trigger.Name,
			Description: trigger.Description,
			EarnedAt:    s.now(),
		}
		u.Badges = append(u.Badges, badge)
		awarded = append(awarded, badge)
		s.log.Info("🎖️ [BADGE] awarded", "badge", trigger.Code, "user_id", userID)
	}
	return awarded, nil
}

func meetsThreshold(u *models.UserProfile, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case models.ThresholdScore:
			if required > 0 && u.Score < uint64(required) {
				return false
			}
		case models.ThresholdCompletedPairings:
			if u.CompletedPairings < required {
				return false
			}
		case models.ThresholdInterests:
			if int64(len(u.Interests)) < required {
				return false
			}
		case models.ThresholdCountriesVisited:
			if int64(len(u.CountriesVisited)) < required {
				return false
			}
		case models.ThresholdEvent: // always satisfied (e.g., signup)
		default:
			return false
		}
	}
	return true
}
