package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pingpair/models"
	"pingpair/services"
	"pingpair/utils"
)

func newMatchmaker() *services.Matchmaker {
	var n int64
	return services.NewMatchmaker(services.Options{
		Random: rand.New(rand.NewSource(3)),
		NewID:  func() string { return fmt.Sprintf("id-%d", atomic.AddInt64(&n, 1)) },
	})
}

type memoryStore struct {
	mu    sync.Mutex
	saved []services.Snapshot
	fail  error
}

func (s *memoryStore) Load(context.Context) (*services.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return nil, nil
	}
	snap := s.saved[len(s.saved)-1]
	return &snap, nil
}

func (s *memoryStore) Save(_ context.Context, snap *services.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.saved = append(s.saved, *snap)
	return nil
}

func (s *memoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func TestSnapshotWorkerSavesOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	mm := newMatchmaker()
	store := &memoryStore{}
	w := NewSnapshotWorker(mm, store, time.Hour, utils.NopLogger())

	saved, err := w.SaveIfChanged(ctx)
	require.NoError(t, err)
	assert.False(t, saved, "nothing changed since construction")

	_, _, err = mm.Start("u1", "Amina")
	require.NoError(t, err)
	saved, err = w.SaveIfChanged(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = w.SaveIfChanged(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, 1, store.Saves())

	store.fail = errors.New("disk full")
	_, _, err = mm.Start("u2", "Bo")
	require.NoError(t, err)
	_, err = w.SaveIfChanged(ctx)
	assert.Error(t, err)

	store.fail = nil
	saved, err = w.SaveIfChanged(ctx)
	require.NoError(t, err)
	assert.True(t, saved, "failed saves are retried")
}

func TestSnapshotWorkerFlushesOnShutdown(t *testing.T) {
	mm := newMatchmaker()
	store := &memoryStore{}
	w := NewSnapshotWorker(mm, store, time.Hour, utils.NopLogger())

	_, _, err := mm.Start("u1", "Amina")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot worker did not stop")
	}
	require.Equal(t, 1, store.Saves())
	assert.Equal(t, mm.Version(), store.saved[0].Version)
}

func TestRestoreLatest(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}

	fresh := newMatchmaker()
	restored, err := RestoreLatest(ctx, store, fresh)
	require.NoError(t, err)
	assert.False(t, restored)

	source := newMatchmaker()
	_, _, err = source.Start("u1", "Amina")
	require.NoError(t, err)
	snap := source.Snapshot()
	require.NoError(t, store.Save(ctx, &snap))

	restored, err = RestoreLatest(ctx, store, fresh)
	require.NoError(t, err)
	assert.True(t, restored)
	u, err := fresh.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "Amina", u.Name)
}

type countingCreator struct {
	n int64
}

func (c *countingCreator) CreateSession() models.Session {
	n := atomic.AddInt64(&c.n, 1)
	return models.Session{ID: fmt.Sprintf("s-%d", n)}
}

func TestSessionCycleRunsOnCadence(t *testing.T) {
	creator := &countingCreator{}
	cycle, err := NewSessionCycle(creator, 20*time.Millisecond, utils.NopLogger())
	require.NoError(t, err)
	require.NoError(t, cycle.Start())
	defer func() { _ = cycle.Shutdown() }()

	assert.Eventually(t, func() bool { return atomic.LoadInt64(&creator.n) >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionCycleRejectsBadInterval(t *testing.T) {
	_, err := NewSessionCycle(&countingCreator{}, 0, utils.NopLogger())
	assert.Error(t, err)
}

type fakeSortedSets struct {
	sets map[string][]goredis.Z
	fail error
}

func (f *fakeSortedSets) ZAdd(ctx context.Context, key string, members ...goredis.Z) *goredis.IntCmd {
	cmd := goredis.NewIntCmd(ctx)
	if f.fail != nil {
		cmd.SetErr(f.fail)
		return cmd
	}
	f.sets[key] = append(f.sets[key], members...)
	cmd.SetVal(int64(len(members)))
	return cmd
}

func (f *fakeSortedSets) Rename(ctx context.Context, key, newkey string) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	f.sets[newkey] = f.sets[key]
	delete(f.sets, key)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeSortedSets) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	cmd := goredis.NewIntCmd(ctx)
	for _, k := range keys {
		delete(f.sets, k)
	}
	return cmd
}

func TestLeaderboardSync(t *testing.T) {
	ctx := context.Background()
	mm := newMatchmaker()
	rdb := &fakeSortedSets{sets: map[string][]goredis.Z{"board": {{Score: 1, Member: "stale"}}}}
	w := NewLeaderboardSync(mm, rdb, "board", time.Minute, utils.NopLogger())

	n, err := w.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotContains(t, rdb.sets, "board")

	_, _, err = mm.Start("u1", "Amina")
	require.NoError(t, err)
	_, _, err = mm.Start("u2", "Bo")
	require.NoError(t, err)
	_, err = mm.GrantScore("u2", 10, "")
	require.NoError(t, err)

	n, err = w.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []goredis.Z{{Score: 15, Member: "u2"}, {Score: 5, Member: "u1"}}, rdb.sets["board"])
	assert.NotContains(t, rdb.sets, "board:staging")

	rdb.fail = errors.New("connection refused")
	_, err = w.Sync(ctx)
	assert.Error(t, err)
}

type fakePublisher struct {
	channel string
	payload []byte
	fail    error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	cmd := goredis.NewIntCmd(ctx)
	if f.fail != nil {
		cmd.SetErr(f.fail)
		return cmd
	}
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd.SetVal(2)
	return cmd
}

func TestRedisAnnouncer(t *testing.T) {
	mm := newMatchmaker()
	for _, id := range []string{"u1", "u2", "u3"} {
		_, _, err := mm.Start(id, id)
		require.NoError(t, err)
	}
	pub := &fakePublisher{}
	announcer := NewRedisAnnouncer(pub, "pingpair:sessions", utils.NopLogger())
	mm.OnSession(announcer.HandleSession)

	s := mm.CreateSession()

	assert.Equal(t, "pingpair:sessions", pub.channel)
	var got SessionAnnouncement
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, "session.created", got.Type)
	assert.Equal(t, s.ID, got.SessionID)
	assert.Equal(t, s.FeaturedCountries, got.FeaturedCountries)
	require.Len(t, got.Pairings, 1)
	assert.Equal(t, s.Pairings[0].MeetingLink, got.Pairings[0].MeetingLink)
	assert.Equal(t, s.Pairings[0].Icebreakers, got.Pairings[0].Icebreakers)
	assert.NotEmpty(t, got.Pairings[0].Icebreakers)
	assert.Len(t, got.Unpaired, 1)
	assert.Empty(t, got.Skipped)

	pub.fail = errors.New("no redis")
	_, err := announcer.Announce(context.Background(), s)
	assert.Error(t, err)
}
