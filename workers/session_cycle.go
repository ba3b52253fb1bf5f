// workers/session_cycle.go
package workers

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"pingpair/models"
	"pingpair/utils"
)

// SessionCreator rotates the current session.
type SessionCreator interface {
	CreateSession() models.Session
}

// SessionCycle triggers CreateSession on a fixed cadence.
type SessionCycle struct {
	creator  SessionCreator
	interval time.Duration
	log      *utils.Logger
	sched    gocron.Scheduler
}

func NewSessionCycle(creator SessionCreator, interval time.Duration, log *utils.Logger) (*SessionCycle, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("session interval must be positive, got %s", interval)
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &SessionCycle{creator: creator, interval: interval, log: log, sched: sched}, nil
}

// Start registers the cadence job and starts the scheduler.
func (w *SessionCycle) Start() error {
	_, err := w.sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.run),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("pingpair-session-cycle"),
	)
	if err != nil {
		return fmt.Errorf("register session job: %w", err)
	}
	w.sched.Start()
	w.log.Info("🔁 [SCHEDULER] session cycle started", "interval", w.interval.String())
	return nil
}

func (w *SessionCycle) run() {
	s := w.creator.CreateSession()
	w.log.Info("✅ [SCHEDULER] Ping Time! new session",
		"session_id", s.ID,
		"featured", s.FeaturedCountries,
		"pairings", len(s.Pairings),
	)
}

// Shutdown stops the scheduler and waits for a running job.
func (w *SessionCycle) Shutdown() error {
	return w.sched.Shutdown()
}
