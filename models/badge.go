package models

import (
	"time"
)

// BadgeType: static config for an earnable badge
type BadgeType struct {
	Code        string           `json:"code"` // e.g., "WELCOME", "GLOBETROTTER"
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rarity      string           `json:"rarity"`    // common, rare, epic, legendary
	Threshold   map[string]int64 `json:"threshold"` // e.g., {"completed_pairings": 1}
}

// Badge: earned instance stored on the profile, in earn order
type Badge struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Threshold keys understood by services.BadgeService
const (
	ThresholdEvent             = "event" // always satisfied (e.g., signup)
	ThresholdScore             = "score"
	ThresholdCompletedPairings = "completed_pairings"
	ThresholdInterests         = "interests"
	ThresholdCountriesVisited  = "countries_visited"
)

// Predefined badge triggers
var BadgeTriggers = []BadgeType{
	{
		Code:        "WELCOME",
		Name:        "Welcome Aboard!",
		Description: "Joined PingPair",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdEvent: 1},
	},
	{
		Code:        "FIRST_CONNECTION",
		Name:        "First Connection",
		Description: "Completed your first pairing",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdCompletedPairings: 1},
	},
	{
		Code:        "CURIOUS_MIND",
		Name:        "Curious Mind",
		Description: "Shared three interests",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdInterests: 3},
	},
	{
		Code:        "GLOBETROTTER",
		Name:        "Globetrotter",
		Description: "Met people around three different countries",
		Rarity:      "rare",
		Threshold:   map[string]int64{ThresholdCountriesVisited: 3},
	},
	{
		Code:        "EXPLORER_TIER",
		Name:        "Explorer",
		Description: "Reached the Explorer tier",
		Rarity:      "rare",
		Threshold:   map[string]int64{ThresholdScore: 10},
	},
	{
		Code:        "GLOBAL_AMBASSADOR",
		Name:        "Global Ambassador",
		Description: "Reached 200 Strix points",
		Rarity:      "legendary",
		Threshold:   map[string]int64{ThresholdScore: 200},
	},
}
