// services/scheduler.go
package services

import (
	"sort"
	"time"

	"pingpair/models"
	"pingpair/utils"
)

// SessionScheduler rotates sessions: archive, pick spotlights, pair users.
// It performs no timing of its own; see workers.SessionCycle for the cadence.
type SessionScheduler struct {
	users      *UserDirectory
	spotlights *SpotlightSelector
	pairings   *PairingEngine
	rnd        RandomSource
	now        func() time.Time
	newID      func() string
	log        *utils.Logger

	spotlightCount int
	cancelStale    bool

	current *models.Session
	history []models.Session // oldest first
}

func NewSessionScheduler(
	users *UserDirectory,
	spotlights *SpotlightSelector,
	pairings *PairingEngine,
	rnd RandomSource,
	now func() time.Time,
	newID func() string,
	cfg Config,
	log *utils.Logger,
) *SessionScheduler {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = utils.NopLogger()
	}
	return &SessionScheduler{
		users:          users,
		spotlights:     spotlights,
		pairings:       pairings,
		rnd:            rnd,
		now:            now,
		newID:          newID,
		log:            log,
		spotlightCount: cfg.SpotlightCount,
		cancelStale:    cfg.CancelStalePairings,
	}
}

// CreateSession archives the current session, chooses spotlights, consumes
// one-shot skip flags and pairs the eligible users. Odd users stay unpaired.
func (s *SessionScheduler) CreateSession() models.Session {
	now := s.now()

	// 1. archive
	if s.current != nil {
		archived := *s.current
		s.history = append(s.history, archived)
		s.current = nil
		if s.cancelStale {
			s.cancelStalePairings(archived.ID)
		}
	}

	// 2. spotlights
	chosen := s.spotlights.ChooseSpotlights(s.spotlightCount)
	featured := make([]string, len(chosen))
	for i, c := range chosen {
		featured[i] = c.Name
	}

	// 3. eligibility, consuming skip flags
	var eligible []models.UserProfile
	skipped := []string{}
	for _, u := range s.users.All() {
		if !u.Active {
			continue
		}
		if u.SkipNext {
			skipped = append(skipped, u.ID)
			s.users.clearSkip(u.ID)
			continue
		}
		if s.pairings.HasActive(u.ID) {
			continue
		}
		eligible = append(eligible, u)
	}

	session := models.Session{
		ID:                s.newID(),
		CreatedAt:         now,
		FeaturedCountries: featured,
		Pairings:          []models.Pairing{},
		Skipped:           skipped,
	}

	// 4. pairing
	pairs, unpaired := planPairs(eligible, now, s.rnd)
	if len(featured) == 0 {
		unpaired = idsOf(eligible)
		pairs = nil
	}
	for i, pair := range pairs {
		country := featured[i%len(featured)]
		p, err := s.pairings.form(session.ID, pair[0], pair[1], country)
		if err != nil {
			s.log.Warn("[SCHEDULER] could not form pairing", "user_a", pair[0], "user_b", pair[1], "error", err)
			unpaired = append(unpaired, pair[0], pair[1])
			continue
		}
		session.Pairings = append(session.Pairings, p)
	}
	sort.Strings(unpaired)
	session.Unpaired = unpaired

	// 5. store
	s.current = &session
	s.log.Info("🌍 [SCHEDULER] session created",
		"session_id", session.ID,
		"featured", featured,
		"pairings", len(session.Pairings),
		"unpaired", len(unpaired),
		"skipped", len(skipped),
	)
	return session.Clone()
}

func (s *SessionScheduler) cancelStalePairings(sessionID string) {
	for _, p := range s.pairings.Active() {
		if p.SessionID != sessionID {
			continue
		}
		if _, err := s.pairings.CancelPairing(p.ID); err == nil {
			s.log.Debug("[SCHEDULER] cancelled stale pairing", "pairing_id", p.ID, "session_id", sessionID)
		}
	}
}

// Current returns the current session, if any.
func (s *SessionScheduler) Current() (models.Session, bool) {
	if s.current == nil {
		return models.Session{}, false
	}
	return s.current.Clone(), true
}

// History returns archived sessions, oldest first.
func (s *SessionScheduler) History() []models.Session {
	out := make([]models.Session, len(s.history))
	for i, sess := range s.history {
		out[i] = sess.Clone()
	}
	return out
}

func (s *SessionScheduler) restore(current *models.Session, history []models.Session) {
	s.current = nil
	if current != nil {
		c := current.Clone()
		s.current = &c
	}
	s.history = make([]models.Session, len(history))
	for i, sess := range history {
		s.history[i] = sess.Clone()
	}
}

// planPairs pairs users within whole-hour timezone buckets, then pairs the
// bucket leftovers in bucket order. Inside a bucket each user takes the
// candidate sharing the most interests; ties prefer a different home country,
// then the earlier candidate in shuffled order. Users with an unrecognised
// timezone share the last bucket.
func planPairs(users []models.UserProfile, at time.Time, rnd RandomSource) (pairs [][2]string, unpaired []string) {
	byID := make(map[string]models.UserProfile, len(users))
	ids := idsOf(users)
	for _, u := range users {
		byID[u.ID] = u
	}
	sort.Strings(ids)
	shuffleStrings(ids, rnd)

	buckets := make(map[int][]string)
	var unknown []string
	for _, id := range ids {
		if b, ok := timezoneBucket(byID[id].Timezone, at); ok {
			buckets[b] = append(buckets[b], id)
		} else {
			unknown = append(unknown, id)
		}
	}
	offsets := make([]int, 0, len(buckets))
	for b := range buckets {
		offsets = append(offsets, b)
	}
	sort.Ints(offsets)

	ordered := make([][]string, 0, len(offsets)+1)
	for _, b := range offsets {
		ordered = append(ordered, buckets[b])
	}
	ordered = append(ordered, unknown)

	var leftovers []string
	for _, bucket := range ordered {
		for len(bucket) >= 2 {
			first := byID[bucket[0]]
			j := bestCandidate(first, bucket[1:], byID) + 1
			pairs = append(pairs, [2]string{first.ID, bucket[j]})
			rest := make([]string, 0, len(bucket)-2)
			rest = append(rest, bucket[1:j]...)
			bucket = append(rest, bucket[j+1:]...)
		}
		leftovers = append(leftovers, bucket...)
	}

	for len(leftovers) >= 2 {
		pairs = append(pairs, [2]string{leftovers[0], leftovers[1]})
		leftovers = leftovers[2:]
	}
	return pairs, leftovers
}

// bestCandidate returns the index in candidates of u's preferred partner.
func bestCandidate(u models.UserProfile, candidates []string, byID map[string]models.UserProfile) int {
	best, bestShared, bestForeign := 0, -1, false
	for i, id := range candidates {
		c := byID[id]
		shared := sharedInterests(u, c)
		foreign := differentCountries(u, c)
		if shared > bestShared || (shared == bestShared && foreign && !bestForeign) {
			best, bestShared, bestForeign = i, shared, foreign
		}
	}
	return best
}

// sharedInterests counts interests both users hold, case-insensitively.
func sharedInterests(a, b models.UserProfile) int {
	n := 0
	for _, interest := range a.Interests {
		if b.HasInterest(interest) {
			n++
		}
	}
	return n
}

func differentCountries(a, b models.UserProfile) bool {
	if a.Country == models.UnknownCountry || b.Country == models.UnknownCountry {
		return false
	}
	return a.Country != b.Country
}

func idsOf(users []models.UserProfile) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
