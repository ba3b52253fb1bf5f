package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pingpair/models"
)

var epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// fakeClock returns a fixed instant until advanced.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: epoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// seqIDs yields prefix-1, prefix-2, ...
func seqIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type recordingAudit struct {
	mu     sync.Mutex
	events []models.ScoreEvent
}

func (a *recordingAudit) RecordScoreEvents(_ context.Context, events []models.ScoreEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, events...)
	return nil
}

func (a *recordingAudit) Events() []models.ScoreEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ScoreEvent, len(a.events))
	copy(out, a.events)
	return out
}

type testEnv struct {
	mm    *Matchmaker
	clock *fakeClock
	audit *recordingAudit
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	clock := newFakeClock()
	audit := &recordingAudit{}
	opts := Options{
		Config: Config{
			SpotlightCount:      3,
			StartingScore:       5,
			InterestBonus:       1,
			CompletionBonus:     3,
			CancelStalePairings: true,
			MeetingBaseURL:      "https://meet.example",
		},
		Clock:  clock.Now,
		Random: rand.New(rand.NewSource(42)),
		NewID:  seqIDs("id"),
		Audit:  audit,
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	return &testEnv{mm: NewMatchmaker(opts), clock: clock, audit: audit}
}

// startUser creates an active user with the given home country and timezone.
func (e *testEnv) startUser(t *testing.T, id, country, tz string) models.UserProfile {
	t.Helper()
	_, _, err := e.mm.Start(id, "User "+id)
	require.NoError(t, err)
	upd := ProfileUpdate{}
	if country != "" {
		upd.Country = &country
	}
	if tz != "" {
		upd.Timezone = &tz
	}
	u, err := e.mm.UpdateProfile(id, upd)
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

// assertSingleActivePairing checks that no user is in more than one active pairing.
func assertSingleActivePairing(t *testing.T, active []models.Pairing) {
	t.Helper()
	seen := make(map[string]string)
	for _, p := range active {
		require.Equal(t, models.PairingStatusActive, p.Status)
		require.NotEqual(t, p.UserA, p.UserB, "self pairing %s", p.ID)
		for _, uid := range []string{p.UserA, p.UserB} {
			other, dup := seen[uid]
			require.False(t, dup, "user %s in active pairings %s and %s", uid, other, p.ID)
			seen[uid] = p.ID
		}
	}
}
