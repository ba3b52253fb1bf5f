package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pingpair/models"
)

func TestStartCreatesThenReactivates(t *testing.T) {
	env := newTestEnv(t)

	u, created, err := env.mm.Start("u1", "Amina")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(5), u.Score)

	_, err = env.mm.UpdateProfile("u1", ProfileUpdate{AddInterests: []string{"music"}})
	require.NoError(t, err)
	require.NoError(t, env.mm.Stop("u1"))

	stopped, err := env.mm.GetUser("u1")
	require.NoError(t, err)
	assert.False(t, stopped.Active)

	u, created, err = env.mm.Start("u1", "Renamed")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, u.Active)
	assert.Equal(t, uint64(6), u.Score, "score is preserved on reactivation")
	assert.Equal(t, "Amina", u.Name)
	assert.Equal(t, []string{"music"}, u.Interests)

	_, _, err = env.mm.Start(" ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStartIgnoresSurroundingSpace(t *testing.T) {
	env := newTestEnv(t)
	u, created, err := env.mm.Start(" u1 ", "Amina")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "u1", u.ID)
	require.NoError(t, env.mm.Stop("u1"))

	u, created, err = env.mm.Start("u1  ", "")
	require.NoError(t, err)
	assert.False(t, created, "an existing id with padding is reactivated")
	assert.True(t, u.Active)
}

func TestUnknownUserOperations(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.mm.GetUser("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.mm.Stop("ghost"), ErrNotFound)
	assert.ErrorIs(t, env.mm.SkipNext("ghost", true), ErrNotFound)
	_, err = env.mm.UpdateProfile("ghost", ProfileUpdate{Country: strPtr("Atlantis")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.mm.SetTimezone("ghost", "UTC")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.mm.GetStats("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = env.mm.ActivePairingFor("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.mm.GrantScore("ghost", 1, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok := env.mm.st.catalog.Lookup("Atlantis")
	assert.False(t, ok, "no stub is created for an unknown user's update")
}

func TestUpdateProfileResolvesCountryAndTimezone(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.mm.Start("u1", "Sam")
	require.NoError(t, err)

	u, err := env.mm.UpdateProfile("u1", ProfileUpdate{
		Country:  strPtr("usa"),
		Timezone: strPtr("gmt-5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "United States", u.Country)
	assert.Equal(t, "UTC-05:00", u.Timezone)

	us, err := env.mm.Country("United States")
	require.NoError(t, err)
	assert.True(t, us.Available)

	u, err = env.mm.UpdateProfile("u1", ProfileUpdate{Country: strPtr("atlantis")})
	require.NoError(t, err)
	assert.Equal(t, "Atlantis", u.Country)

	atlantis, err := env.mm.Country("ATLANTIS")
	require.NoError(t, err)
	assert.True(t, atlantis.Stub)
	assert.True(t, atlantis.Available)

	us, err = env.mm.Country("usa")
	require.NoError(t, err)
	assert.False(t, us.Available, "availability follows the user's move")
}

func TestUpdateProfileInterestBonus(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.mm.Start("u1", "Sam")
	require.NoError(t, err)

	u, err := env.mm.UpdateProfile("u1", ProfileUpdate{AddInterests: []string{"music", "food"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.Score)

	u, err = env.mm.UpdateProfile("u1", ProfileUpdate{AddInterests: []string{"Music"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.Score, "duplicate interest is a no-op")
	assert.Equal(t, []string{"music", "food"}, u.Interests)
}

func TestSetTimezone(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.mm.Start("u1", "Sam")
	require.NoError(t, err)

	u, err := env.mm.SetTimezone("u1", "jst")
	require.NoError(t, err)
	assert.Equal(t, "JST", u.Timezone)

	u, err = env.mm.SetTimezone("u1", "my kitchen")
	require.NoError(t, err)
	assert.Equal(t, "my kitchen", u.Timezone, "free-form zones are kept")

	_, err = env.mm.SetTimezone("u1", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompletePairingAwardsBothParticipants(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")
	env.startUser(t, "u2", "Japan", "UTC")

	s := env.mm.CreateSession()
	require.Len(t, s.Pairings, 1)
	p := s.Pairings[0]

	_, err := env.mm.CompletePairingFor("u3", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	done, err := env.mm.CompletePairingFor("u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PairingStatusCompleted, done.Status)

	for _, id := range []string{"u1", "u2"} {
		stats, err := env.mm.GetStats(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(8), stats.Score)
		assert.Equal(t, int64(1), stats.CompletedPairings)
		assert.Equal(t, []string{p.Country}, stats.CountriesVisited)
		assert.Nil(t, stats.CurrentPairing)
		assert.Contains(t, badgeCodes(stats.Badges), "FIRST_CONNECTION")
	}

	_, err = env.mm.CompletePairing(p.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteCancelledPairing(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")
	env.startUser(t, "u2", "Japan", "UTC")
	p := env.mm.CreateSession().Pairings[0]

	_, err := env.mm.CancelPairing(p.ID)
	require.NoError(t, err)

	_, err = env.mm.CompletePairing(p.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	u, _ := env.mm.GetUser("u1")
	assert.Equal(t, uint64(5), u.Score, "cancellation does not affect score")
}

func TestGetStats(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")
	env.startUser(t, "u2", "Japan", "UTC")
	env.mm.CreateSession()

	stats, err := env.mm.GetStats("u1")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), stats.Score)
	assert.Equal(t, models.TierNewcomer, stats.Tier)
	require.NotNil(t, stats.NextTier)
	assert.Equal(t, models.TierExplorer, *stats.NextTier)
	assert.Equal(t, uint64(5), stats.PointsToNextTier)
	require.NotNil(t, stats.CurrentPairing)
	assert.Equal(t, "u2", stats.CurrentPairing.Partner("u1"))

	_, err = env.mm.GrantScore("u1", 500, "")
	require.NoError(t, err)
	stats, err = env.mm.GetStats("u1")
	require.NoError(t, err)
	assert.Equal(t, models.TierGlobalAmbassador, stats.Tier)
	assert.Nil(t, stats.NextTier)
	assert.Zero(t, stats.PointsToNextTier)
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"u1", "u2", "u3"} {
		_, _, err := env.mm.Start(id, id)
		require.NoError(t, err)
		env.clock.Advance(1)
	}
	_, err := env.mm.GrantScore("u3", 20, "")
	require.NoError(t, err)

	board := env.mm.Leaderboard(LeaderboardByScore, 0)
	require.Len(t, board, 3)
	assert.Equal(t, "u3", board[0].UserID)
	assert.Equal(t, models.TierExplorer, board[0].Tier)
	assert.Equal(t, "u1", board[1].UserID, "ties go to the earlier joiner")
	assert.Equal(t, "u2", board[2].UserID)
	assert.Equal(t, 3, board[2].Rank)

	assert.Len(t, env.mm.Leaderboard(LeaderboardByScore, 2), 2)
}

func TestLeaderboardMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")
	env.clock.Advance(1)
	env.startUser(t, "u2", "Japan", "UTC")
	env.clock.Advance(1)
	env.startUser(t, "u3", "Egypt", "UTC")

	s := env.mm.CreateSession()
	require.Len(t, s.Pairings, 1)
	require.Len(t, s.Unpaired, 1)
	p := s.Pairings[0]
	loner := s.Unpaired[0]
	_, err := env.mm.CompletePairing(p.ID)
	require.NoError(t, err)
	_, err = env.mm.GrantScore(loner, 50, "")
	require.NoError(t, err)

	paired := []string{p.UserA, p.UserB}
	sort.Strings(paired) // join order matches id order here

	byScore := env.mm.Leaderboard(LeaderboardByScore, 0)
	assert.Equal(t, loner, byScore[0].UserID)

	for _, metric := range []LeaderboardMetric{LeaderboardByStreak, LeaderboardByPairings} {
		board := env.mm.Leaderboard(metric, 0)
		require.Len(t, board, 3, metric)
		assert.Equal(t, paired, []string{board[0].UserID, board[1].UserID}, metric)
		assert.Equal(t, loner, board[2].UserID, metric)
		assert.Equal(t, int64(1), board[0].BestStreak)
		assert.Equal(t, int64(1), board[0].CompletedPairings)
		assert.Zero(t, board[2].CompletedPairings)
	}

	metric, err := ParseLeaderboardMetric(" Streak ")
	require.NoError(t, err)
	assert.Equal(t, LeaderboardByStreak, metric)
	metric, err = ParseLeaderboardMetric("")
	require.NoError(t, err)
	assert.Equal(t, LeaderboardByScore, metric)
	_, err = ParseLeaderboardMetric("karma")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompletionStreaks(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")
	env.startUser(t, "u2", "Japan", "UTC")

	complete := func() {
		t.Helper()
		s := env.mm.CreateSession()
		require.Len(t, s.Pairings, 1)
		_, err := env.mm.CompletePairing(s.Pairings[0].ID)
		require.NoError(t, err)
	}

	complete()
	env.clock.Advance(84 * time.Hour)
	complete()
	stats, err := env.mm.GetStats("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Streak)
	assert.Equal(t, int64(2), stats.BestStreak)

	env.clock.Advance(10 * 24 * time.Hour)
	complete()
	stats, err = env.mm.GetStats("u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Streak, "a long gap restarts the streak")
	assert.Equal(t, int64(2), stats.BestStreak)
}

func TestUnknownCountryStaysOutOfCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")

	for _, spelling := range []string{"Unknown", "  unknown "} {
		u, err := env.mm.UpdateProfile("u1", ProfileUpdate{Country: strPtr(spelling)})
		require.NoError(t, err)
		assert.Equal(t, models.UnknownCountry, u.Country)
	}

	for _, c := range env.mm.Countries(false) {
		assert.NotEqual(t, models.UnknownCountry, c.Name)
	}
	assert.Empty(t, env.mm.Countries(true), "Kenya is no longer anyone's home")

	_, err := env.mm.Country("Unknown")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSessionsNeverFeatureStubs(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"Atlantis", "Narnia", "Mordor", "Oz", "Wakanda", "Genovia", "Latveria"} {
		c, err := env.mm.Country(name)
		require.NoError(t, err)
		require.True(t, c.Stub)
	}
	seeded := map[string]struct{}{}
	for _, c := range DefaultCountries() {
		seeded[c.Name] = struct{}{}
	}

	for i := 0; i < 20; i++ {
		s := env.mm.CreateSession()
		require.Len(t, s.FeaturedCountries, 3)
		for _, name := range s.FeaturedCountries {
			assert.Contains(t, seeded, name, "session %d", i)
		}
		env.clock.Advance(time.Hour)
	}
}

func TestCountries(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")

	all := env.mm.Countries(false)
	assert.Len(t, all, len(DefaultCountries()))

	available := env.mm.Countries(true)
	require.Len(t, available, 1)
	assert.Equal(t, "Kenya", available[0].Name)

	_, err := env.mm.Country("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	before := env.mm.Version()
	_, err = env.mm.Country("kenya")
	require.NoError(t, err)
	assert.Equal(t, before, env.mm.Version(), "lookups of known countries are read-only")
}

func TestAuditReceivesScoreEvents(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.mm.Start("u1", "Sam")
	require.NoError(t, err)
	_, err = env.mm.UpdateProfile("u1", ProfileUpdate{AddInterests: []string{"tea"}})
	require.NoError(t, err)
	_, err = env.mm.GrantScore("u1", -100, "penalty")
	require.NoError(t, err)

	events := env.audit.Events()
	require.Len(t, events, 3)
	assert.Equal(t, models.ReasonJoin, events[0].Reason)
	assert.Equal(t, int64(5), events[0].Applied)
	assert.Equal(t, models.ReasonInterestAdded, events[1].Reason)
	assert.Equal(t, uint64(6), events[1].NewScore)
	assert.Equal(t, "penalty", events[2].Reason)
	assert.Equal(t, int64(-6), events[2].Applied)
	assert.Equal(t, uint64(0), events[2].NewScore)
}

func TestSessionListeners(t *testing.T) {
	env := newTestEnv(t)
	var got []string
	env.mm.OnSession(func(s models.Session) { got = append(got, s.ID) })

	s1 := env.mm.CreateSession()
	s2 := env.mm.CreateSession()
	assert.Equal(t, []string{s1.ID, s2.ID}, got)
}

func TestVersionTracksMutations(t *testing.T) {
	env := newTestEnv(t)
	assert.Zero(t, env.mm.Version())

	_, _, err := env.mm.Start("u1", "Sam")
	require.NoError(t, err)
	v := env.mm.Version()
	assert.Equal(t, uint64(1), v)

	_, _ = env.mm.GetStats("u1")
	env.mm.Leaderboard(LeaderboardByScore, 10)
	assert.Equal(t, v, env.mm.Version())

	assert.Error(t, env.mm.Stop("ghost"))
	assert.Equal(t, v, env.mm.Version(), "failed operations do not bump the version")
}

func TestSnapshotRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")
	env.startUser(t, "u2", "Japan", "UTC")
	env.startUser(t, "u3", "Atlantis", "UTC+3")
	env.startUser(t, "u4", "usa", "UTC+3")
	_, err := env.mm.UpdateProfile("u1", ProfileUpdate{AddInterests: []string{"tea"}, Bio: strPtr("hi")})
	require.NoError(t, err)

	first := env.mm.CreateSession()
	_, err = env.mm.CompletePairing(first.Pairings[0].ID)
	require.NoError(t, err)
	env.clock.Advance(1)
	second := env.mm.CreateSession()
	_, err = env.mm.CancelPairing(second.Pairings[0].ID)
	require.NoError(t, err)
	require.NoError(t, env.mm.SkipNext("u2", true))

	snap := env.mm.Snapshot()
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored := newTestEnv(t)
	restored.clock.Advance(1)
	require.NoError(t, restored.mm.Restore(decoded))
	assert.Equal(t, snap.Version, restored.mm.Version())

	again, err := json.Marshal(restored.mm.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	// Restored state keeps enforcing its rules.
	_, err = restored.mm.CompletePairing(second.Pairings[0].ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	atlantis, err := restored.mm.Country("atlantis")
	require.NoError(t, err)
	assert.True(t, atlantis.Stub)
}

func TestRestoreRejectsInconsistentSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.startUser(t, "u1", "Kenya", "UTC")
	before := env.mm.Snapshot()

	bad := Snapshot{
		Version: 9,
		Users: []models.UserProfile{
			{ID: "a", Active: true}, {ID: "b", Active: true}, {ID: "c", Active: true},
		},
		ActivePairings: []models.Pairing{
			{ID: "p1", UserA: "a", UserB: "b", Status: models.PairingStatusActive},
			{ID: "p2", UserA: "b", UserB: "c", Status: models.PairingStatusActive},
		},
	}
	err := env.mm.Restore(bad)
	assert.ErrorIs(t, err, ErrInvalidPairing)

	bad.ActivePairings = []models.Pairing{{ID: "p1", UserA: "a", UserB: "zz"}}
	err = env.mm.Restore(bad)
	assert.ErrorIs(t, err, ErrInvalidState)

	after := env.mm.Snapshot()
	assert.Equal(t, before, after, "failed restore leaves the state untouched")
}

func TestConcurrentOperationsKeepInvariants(t *testing.T) {
	env := newTestEnv(t)

	var (
		wg      sync.WaitGroup
		created int64
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				id := fmt.Sprintf("w%d-u%d", w, i%5)
				_, _, _ = env.mm.Start(id, id)
				_, _ = env.mm.UpdateProfile(id, ProfileUpdate{
					Country:      strPtr([]string{"Kenya", "Japan", "Egypt"}[i%3]),
					AddInterests: []string{fmt.Sprintf("topic-%d", i%4)},
				})
				if i%7 == 0 {
					s := env.mm.CreateSession()
					atomic.AddInt64(&created, 1)
					for _, p := range s.Pairings {
						_, _ = env.mm.CompletePairing(p.ID)
					}
				}
				if i%11 == 0 {
					_ = env.mm.SkipNext(id, true)
				}
			}
		}(w)
	}
	wg.Wait()

	snap := env.mm.Snapshot()
	assertSingleActivePairing(t, snap.ActivePairings)
	assert.Len(t, snap.Users, 40)
	require.NotNil(t, snap.CurrentSession)
	assert.Len(t, snap.PastSessions, int(created)-1)
}
