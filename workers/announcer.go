// workers/announcer.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pingpair/models"
	"pingpair/utils"
)

const publishTimeout = 5 * time.Second

// Publisher is the subset of *redis.Client used for announcements.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// SessionAnnouncement is the message chat adapters render as "Ping Time".
type SessionAnnouncement struct {
	Type              string             `json:"type"`
	SessionID         string             `json:"session_id"`
	CreatedAt         time.Time          `json:"created_at"`
	FeaturedCountries []string           `json:"featured_countries"`
	Pairings          []AnnouncedPairing `json:"pairings"`
	Unpaired          []string           `json:"unpaired"`
	Skipped           []string           `json:"skipped"`
}

type AnnouncedPairing struct {
	ID          string   `json:"id"`
	UserA       string   `json:"user_a"`
	UserB       string   `json:"user_b"`
	Country     string   `json:"country"`
	MeetingLink string   `json:"meeting_link"`
	Icebreakers []string `json:"icebreakers"`
}

func announcementFor(s models.Session) SessionAnnouncement {
	a := SessionAnnouncement{
		Type:              "session.created",
		SessionID:         s.ID,
		CreatedAt:         s.CreatedAt,
		FeaturedCountries: s.FeaturedCountries,
		Pairings:          make([]AnnouncedPairing, len(s.Pairings)),
		Unpaired:          s.Unpaired,
		Skipped:           s.Skipped,
	}
	for i, p := range s.Pairings {
		a.Pairings[i] = AnnouncedPairing{
			ID:          p.ID,
			UserA:       p.UserA,
			UserB:       p.UserB,
			Country:     p.Country,
			MeetingLink: p.MeetingLink,
			Icebreakers: p.Icebreakers,
		}
	}
	if a.Unpaired == nil {
		a.Unpaired = []string{}
	}
	if a.Skipped == nil {
		a.Skipped = []string{}
	}
	return a
}

// RedisAnnouncer publishes every new session to a Redis channel.
type RedisAnnouncer struct {
	rdb     Publisher
	channel string
	log     *utils.Logger
}

func NewRedisAnnouncer(rdb Publisher, channel string, log *utils.Logger) *RedisAnnouncer {
	return &RedisAnnouncer{rdb: rdb, channel: channel, log: log}
}

// Announce publishes s and returns the number of subscribers that received it.
func (a *RedisAnnouncer) Announce(ctx context.Context, s models.Session) (int64, error) {
	payload, err := json.Marshal(announcementFor(s))
	if err != nil {
		return 0, fmt.Errorf("encode announcement: %w", err)
	}
	n, err := a.rdb.Publish(ctx, a.channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish to %q: %w", a.channel, err)
	}
	return n, nil
}

// HandleSession matches services.SessionListener.
func (a *RedisAnnouncer) HandleSession(s models.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	n, err := a.Announce(ctx, s)
	if err != nil {
		a.log.Error("❌ [ANNOUNCE] session announcement failed", "session_id", s.ID, "error", err)
		return
	}
	a.log.Info("📣 [ANNOUNCE] session published", "session_id", s.ID, "channel", a.channel, "subscribers", n)
}
