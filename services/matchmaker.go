package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pingpair/models"
	"pingpair/utils"
)

const auditTimeout = 5 * time.Second

// ScoreAudit receives every applied score event after the state lock is released.
type ScoreAudit interface {
	RecordScoreEvents(ctx context.Context, events []models.ScoreEvent) error
}

// SessionListener is notified with every newly created session.
type SessionListener func(models.Session)

// Options configures a Matchmaker. Zero values fall back to defaults; a zero
// Config means DefaultConfig().
type Options struct {
	Config    Config
	Clock     func() time.Time
	Random    RandomSource
	NewID     func() string
	Countries []models.Country
	Aliases   map[string]string
	Provider  CountryProvider
	Audit     ScoreAudit
	Logger    *utils.Logger
}

// Stats is the progress summary returned by GetStats.
type Stats struct {
	UserID            string          `json:"user_id"`
	Name              string          `json:"name"`
	Score             uint64          `json:"score"`
	Tier              models.Tier     `json:"tier"`
	NextTier          *models.Tier    `json:"next_tier,omitempty"`
	PointsToNextTier  uint64          `json:"points_to_next_tier"`
	CompletedPairings int64           `json:"completed_pairings"`
	Streak            int64           `json:"streak"`
	BestStreak        int64           `json:"best_streak"`
	Active            bool            `json:"active"`
	SkipNext          bool            `json:"skip_next"`
	Badges            []models.Badge  `json:"badges"`
	CountriesVisited  []string        `json:"countries_visited"`
	Interests         []string        `json:"interests"`
	CurrentPairing    *models.Pairing `json:"current_pairing,omitempty"`
}

type LeaderboardEntry struct {
	Rank              int         `json:"rank"`
	UserID            string      `json:"user_id"`
	Name              string      `json:"name"`
	Country           string      `json:"country"`
	Score             uint64      `json:"score"`
	Tier              models.Tier `json:"tier"`
	BestStreak        int64       `json:"best_streak"`
	CompletedPairings int64       `json:"completed_pairings"`
}

// LeaderboardMetric selects what a leaderboard ranks by.
type LeaderboardMetric string

const (
	LeaderboardByScore    LeaderboardMetric = "score"
	LeaderboardByStreak   LeaderboardMetric = "streak"   // best streak
	LeaderboardByPairings LeaderboardMetric = "pairings" // completed pairings
)

// ParseLeaderboardMetric reads a metric name; blank means score.
func ParseLeaderboardMetric(name string) (LeaderboardMetric, error) {
	switch m := LeaderboardMetric(strings.ToLower(strings.TrimSpace(name))); m {
	case "":
		return LeaderboardByScore, nil
	case LeaderboardByScore, LeaderboardByStreak, LeaderboardByPairings:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown leaderboard metric %q", ErrInvalidInput, name)
	}
}

func (m LeaderboardMetric) value(u models.UserProfile) uint64 {
	switch m {
	case LeaderboardByStreak:
		return uint64(u.BestStreak)
	case LeaderboardByPairings:
		return uint64(u.CompletedPairings)
	default:
		return u.Score
	}
}

// Matchmaker owns the state container. Every operation holds the mutex for its
// whole duration, so callers never observe a half-applied change.
type Matchmaker struct {
	mu      sync.Mutex
	st      *state
	version uint64

	cfg       Config
	now       func() time.Time
	rnd       RandomSource
	newID     func() string
	countries []models.Country
	aliases   map[string]string
	provider  CountryProvider
	audit     ScoreAudit
	log       *utils.Logger

	listeners []SessionListener
}

func NewMatchmaker(opts Options) *Matchmaker {
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}
	m := &Matchmaker{
		cfg:       opts.Config.normalized(),
		now:       opts.Clock,
		rnd:       opts.Random,
		newID:     opts.NewID,
		countries: opts.Countries,
		aliases:   opts.Aliases,
		provider:  opts.Provider,
		audit:     opts.Audit,
		log:       opts.Logger,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewSource(m.now().UnixNano()))
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.countries == nil {
		m.countries = DefaultCountries()
	}
	if m.aliases == nil {
		m.aliases = DefaultAliases()
	}
	if m.provider == nil {
		m.provider = KnownCountries()
	}
	if m.log == nil {
		m.log = utils.NopLogger()
	}
	m.st = m.newState()
	return m
}

func (m *Matchmaker) newState() *state {
	st := &state{}
	st.catalog = NewCatalog(m.countries, m.aliases, m.provider)
	st.users = NewUserDirectory(m.cfg.StartingScore, m.cfg.StreakWindow)
	st.ledger = NewScoreLedger(st.users, m.now)
	st.badges = NewBadgeService(st.users, m.now, m.log)
	st.spotlights = NewSpotlightSelector(st.catalog, st.users, m.rnd)
	st.pairings = NewPairingEngine(m.newID, m.now, m.cfg.MeetingBaseURL)
	st.scheduler = NewSessionScheduler(st.users, st.spotlights, st.pairings, m.rnd, m.now, m.newID, m.cfg, m.log)

	st.pairings.UseIcebreakers(func(country, pairingID string) []string {
		c, ok := st.catalog.Lookup(country)
		if !ok {
			c = models.Country{Name: country}
		}
		return Icebreakers(c, pairingID)
	})
	st.pairings.OnComplete(func(p models.Pairing) {
		closedAt := m.now()
		if p.ClosedAt != nil {
			closedAt = *p.ClosedAt
		}
		for _, uid := range []string{p.UserA, p.UserB} {
			if err := st.users.RecordCompletion(uid, p.Country, closedAt); err != nil {
				m.log.Warn("[PAIRING] completion for unknown user", "pairing_id", p.ID, "user_id", uid, "error", err)
				continue
			}
			if m.cfg.CompletionBonus != 0 {
				_, _ = st.ledger.ApplyEvent(uid, m.cfg.CompletionBonus, models.ReasonPairingCompleted)
			}
			_, _ = st.badges.AutoAwardBadges(uid)
		}
	})
	return st
}

// OnSession registers a listener called after each CreateSession, outside the lock.
func (m *Matchmaker) OnSession(fn SessionListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// mutate runs fn under the lock, bumps the version on success and forwards the
// produced score events to the audit once the lock is released.
func (m *Matchmaker) mutate(fn func(st *state) error) error {
	m.mu.Lock()
	err := fn(m.st)
	events := m.st.ledger.drain()
	if err == nil || len(events) > 0 {
		m.version++
	}
	m.mu.Unlock()

	m.forward(events)
	return err
}

func (m *Matchmaker) read(fn func(st *state)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.st)
}

func (m *Matchmaker) forward(events []models.ScoreEvent) {
	if m.audit == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	if err := m.audit.RecordScoreEvents(ctx, events); err != nil {
		m.log.Error("[AUDIT] failed to record score events", "count", len(events), "error", err)
	}
}

func (st *state) refreshAvailability() {
	st.catalog.RecomputeAvailability(st.users.ActiveCountries())
}

// Start activates userID: an existing profile is reactivated with score and
// history preserved, an unknown id gets a new profile. created reports which.
func (m *Matchmaker) Start(userID, name string) (profile models.UserProfile, created bool, err error) {
	userID = strings.TrimSpace(userID)
	err = m.mutate(func(st *state) error {
		u, err := st.users.Reactivate(userID)
		if errors.Is(err, ErrNotFound) {
			u, err = st.users.Create(userID, name, m.now())
			if err != nil {
				return err
			}
			created = true
			st.ledger.recordJoin(u)
		} else if err != nil {
			return err
		}
		if _, err := st.badges.AutoAwardBadges(u.ID); err != nil {
			return err
		}
		st.refreshAvailability()
		profile, _ = st.users.Get(u.ID)
		return nil
	})
	if err == nil {
		m.log.Info("👋 [USERS] started", "user_id", profile.ID, "created", created)
	}
	return profile, created, err
}

// Stop deactivates the user; score and history stay.
func (m *Matchmaker) Stop(userID string) error {
	return m.mutate(func(st *state) error {
		if err := st.users.Deactivate(userID); err != nil {
			return err
		}
		st.refreshAvailability()
		return nil
	})
}

func (m *Matchmaker) GetUser(userID string) (models.UserProfile, error) {
	var (
		u  models.UserProfile
		ok bool
	)
	m.read(func(st *state) { u, ok = st.users.Get(userID) })
	if !ok {
		return models.UserProfile{}, notFoundUser(userID)
	}
	return u, nil
}

// UpdateProfile resolves the country through the catalog (creating a stub for
// unseen names), normalises the timezone and awards the interest bonus once per
// new interest.
func (m *Matchmaker) UpdateProfile(userID string, upd ProfileUpdate) (models.UserProfile, error) {
	var profile models.UserProfile
	err := m.mutate(func(st *state) error {
		if _, err := st.users.profile(userID); err != nil {
			return err
		}
		if upd.Timezone != nil && strings.TrimSpace(*upd.Timezone) != "" {
			tz, err := NormalizeTimezone(*upd.Timezone)
			if err != nil {
				return err
			}
			upd.Timezone = &tz
		}
		if upd.Country != nil && strings.TrimSpace(*upd.Country) != "" {
			if IsUnknownCountry(*upd.Country) {
				unknown := models.UnknownCountry
				upd.Country = &unknown
			} else {
				country, err := st.catalog.UpsertStub(*upd.Country)
				if err != nil {
					return err
				}
				upd.Country = &country.Name
			}
		}

		_, added, err := st.users.UpdateProfile(userID, upd)
		if err != nil {
			return err
		}
		if m.cfg.InterestBonus != 0 {
			for range added {
				if _, err := st.ledger.ApplyEvent(userID, m.cfg.InterestBonus, models.ReasonInterestAdded); err != nil {
					return err
				}
			}
		}
		if _, err := st.badges.AutoAwardBadges(userID); err != nil {
			return err
		}
		st.refreshAvailability()
		profile, _ = st.users.Get(userID)
		return nil
	})
	return profile, err
}

// SkipNext sets or clears the one-shot skip flag for the next session.
func (m *Matchmaker) SkipNext(userID string, skip bool) error {
	return m.mutate(func(st *state) error {
		return st.users.SetSkipNext(userID, skip)
	})
}

// SetTimezone stores the normalised timezone; only blank input is rejected.
func (m *Matchmaker) SetTimezone(userID, tz string) (models.UserProfile, error) {
	if strings.TrimSpace(tz) == "" {
		return models.UserProfile{}, fmt.Errorf("%w: timezone is required", ErrInvalidInput)
	}
	return m.UpdateProfile(userID, ProfileUpdate{Timezone: &tz})
}

func (m *Matchmaker) GetStats(userID string) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	m.read(func(st *state) {
		u, ok := st.users.Get(userID)
		if !ok {
			err = notFoundUser(userID)
			return
		}
		stats = Stats{
			UserID:            u.ID,
			Name:              u.Name,
			Score:             u.Score,
			Tier:              TierOf(u.Score),
			CompletedPairings: u.CompletedPairings,
			Streak:            u.Streak,
			BestStreak:        u.BestStreak,
			Active:            u.Active,
			SkipNext:          u.SkipNext,
			Badges:            u.Badges,
			CountriesVisited:  u.CountriesVisited,
			Interests:         u.Interests,
		}
		if next, missing, ok := NextTier(u.Score); ok {
			stats.NextTier = &next
			stats.PointsToNextTier = missing
		}
		if p, ok := st.pairings.ActiveFor(userID); ok {
			stats.CurrentPairing = &p
		}
	})
	return stats, err
}

// CreateSession rotates to a new session and notifies session listeners.
func (m *Matchmaker) CreateSession() models.Session {
	var (
		session   models.Session
		listeners []SessionListener
	)
	_ = m.mutate(func(st *state) error {
		session = st.scheduler.CreateSession()
		listeners = append(listeners, m.listeners...)
		return nil
	})
	for _, fn := range listeners {
		fn(session.Clone())
	}
	return session
}

// CurrentSession returns the current session, NotFound before the first one.
func (m *Matchmaker) CurrentSession() (models.Session, error) {
	var (
		s  models.Session
		ok bool
	)
	m.read(func(st *state) { s, ok = st.scheduler.Current() })
	if !ok {
		return models.Session{}, fmt.Errorf("%w: no session has been created yet", ErrNotFound)
	}
	return s, nil
}

// SessionHistory returns archived sessions, oldest first.
func (m *Matchmaker) SessionHistory() []models.Session {
	var out []models.Session
	m.read(func(st *state) { out = st.scheduler.History() })
	return out
}

// CompletePairing completes an active pairing and awards the completion bonus.
func (m *Matchmaker) CompletePairing(pairingID string) (models.Pairing, error) {
	var p models.Pairing
	err := m.mutate(func(st *state) error {
		var err error
		p, err = st.pairings.CompletePairing(pairingID)
		return err
	})
	return p, err
}

// CompletePairingFor completes a pairing on behalf of one of its participants.
// Pairings the user is not part of are reported as NotFound.
func (m *Matchmaker) CompletePairingFor(userID, pairingID string) (models.Pairing, error) {
	var p models.Pairing
	err := m.mutate(func(st *state) error {
		current, err := st.pairings.Get(pairingID)
		if err != nil {
			return err
		}
		if !current.Involves(userID) {
			return fmt.Errorf("%w: pairing %s", ErrNotFound, pairingID)
		}
		p, err = st.pairings.CompletePairing(pairingID)
		return err
	})
	return p, err
}

func (m *Matchmaker) CancelPairing(pairingID string) (models.Pairing, error) {
	var p models.Pairing
	err := m.mutate(func(st *state) error {
		var err error
		p, err = st.pairings.CancelPairing(pairingID)
		return err
	})
	return p, err
}

// ActivePairingFor returns the user's active pairing; ok is false when there is none.
func (m *Matchmaker) ActivePairingFor(userID string) (p models.Pairing, ok bool, err error) {
	m.read(func(st *state) {
		if _, found := st.users.Get(userID); !found {
			err = notFoundUser(userID)
			return
		}
		p, ok = st.pairings.ActiveFor(userID)
	})
	return p, ok, err
}

// GrantScore applies a manual adjustment; negative deltas clamp at zero.
func (m *Matchmaker) GrantScore(userID string, delta int64, reason string) (models.ScoreEvent, error) {
	if strings.TrimSpace(reason) == "" {
		reason = models.ReasonManualAdjustment
	}
	var ev models.ScoreEvent
	err := m.mutate(func(st *state) error {
		var err error
		ev, err = st.ledger.ApplyEvent(userID, delta, reason)
		if err != nil {
			return err
		}
		_, err = st.badges.AutoAwardBadges(userID)
		return err
	})
	return ev, err
}

// Leaderboard returns the top limit profiles by metric (unknown metrics rank by
// score); ties go to the earlier joiner. limit <= 0 returns everyone.
func (m *Matchmaker) Leaderboard(metric LeaderboardMetric, limit int) []LeaderboardEntry {
	var users []models.UserProfile
	m.read(func(st *state) { users = st.users.All() })

	sort.SliceStable(users, func(i, j int) bool {
		if vi, vj := metric.value(users[i]), metric.value(users[j]); vi != vj {
			return vi > vj
		}
		if !users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].JoinedAt.Before(users[j].JoinedAt)
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}

	out := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		out[i] = LeaderboardEntry{
			Rank:              i + 1,
			UserID:            u.ID,
			Name:              u.Name,
			Country:           u.Country,
			Score:             u.Score,
			Tier:              TierOf(u.Score),
			BestStreak:        u.BestStreak,
			CompletedPairings: u.CompletedPairings,
		}
	}
	return out
}

// Countries lists the catalog sorted by name, optionally only available ones.
func (m *Matchmaker) Countries(availableOnly bool) []models.Country {
	var out []models.Country
	m.read(func(st *state) {
		if availableOnly {
			out = st.catalog.Available()
		} else {
			out = st.catalog.All()
		}
	})
	return out
}

// Country looks name up, creating a stub record on first sight of an unknown name.
func (m *Matchmaker) Country(name string) (models.Country, error) {
	var (
		c  models.Country
		ok bool
	)
	m.read(func(st *state) { c, ok = st.catalog.Lookup(name) })
	if ok {
		return c, nil
	}
	err := m.mutate(func(st *state) error {
		var err error
		c, err = st.catalog.UpsertStub(name)
		if err != nil {
			return err
		}
		st.refreshAvailability()
		c, _ = st.catalog.Lookup(c.Name)
		return nil
	})
	return c, err
}

// Snapshot copies the whole state container.
func (m *Matchmaker) Snapshot() Snapshot {
	var snap Snapshot
	m.read(func(st *state) { snap = st.snapshot(m.version, m.now()) })
	return snap
}

// Restore replaces the state with snap. The current state is kept if snap is
// inconsistent.
func (m *Matchmaker) Restore(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.newState()
	if err := st.restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	m.st = st
	m.version = snap.Version
	return nil
}

// Version increases on every successful mutation.
func (m *Matchmaker) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}
