package services

import "time"

// Config holds the tunables of the matchmaking core.
type Config struct {
	SpotlightCount      int           // countries featured per session
	StartingScore       uint64        // Strix points granted on join
	InterestBonus       int64         // points for each new interest
	CompletionBonus     int64         // points for each participant of a completed pairing
	CancelStalePairings bool          // cancel still-active pairings of the archived session on rotation
	MeetingBaseURL      string        // video room prefix for pairing meeting links
	StreakWindow        time.Duration // max gap between completions that keeps a streak going
}

func DefaultConfig() Config {
	return Config{
		SpotlightCount:      3,
		StartingScore:       5,
		InterestBonus:       1,
		CompletionBonus:     3,
		CancelStalePairings: true,
		MeetingBaseURL:      "https://meet.jit.si",
		StreakWindow:        7 * 24 * time.Hour,
	}
}

func (c Config) normalized() Config {
	if c.SpotlightCount < 1 {
		c.SpotlightCount = 1
	}
	if c.MeetingBaseURL == "" {
		c.MeetingBaseURL = DefaultConfig().MeetingBaseURL
	}
	if c.StreakWindow <= 0 {
		c.StreakWindow = DefaultConfig().StreakWindow
	}
	return c
}
