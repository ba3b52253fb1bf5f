package services

import (
	"fmt"
	"time"

	"pingpair/models"
)

// Snapshot is a lossless, JSON-serialisable copy of the whole state container.
type Snapshot struct {
	Version             uint64               `json:"version"`
	SavedAt             time.Time            `json:"saved_at"`
	Users               []models.UserProfile `json:"users"`
	Countries           []models.Country     `json:"countries"`
	CurrentSession      *models.Session      `json:"current_session,omitempty"`
	PastSessions        []models.Session     `json:"past_sessions"`
	ActivePairings      []models.Pairing     `json:"active_pairings"`
	CompletedPairings   []models.Pairing     `json:"completed_pairings"`
	CancelledPairingIDs []string             `json:"cancelled_pairing_ids"`
}

// state is the container owned by a Matchmaker. Components share the
// directory and catalog by pointer; nothing outside the container does.
type state struct {
	catalog    *Catalog
	users      *UserDirectory
	ledger     *ScoreLedger
	badges     *BadgeService
	spotlights *SpotlightSelector
	pairings   *PairingEngine
	scheduler  *SessionScheduler
}

func (s *state) snapshot(version uint64, at time.Time) Snapshot {
	snap := Snapshot{
		Version:             version,
		SavedAt:             at,
		Users:               s.users.All(),
		Countries:           s.catalog.All(),
		PastSessions:        s.scheduler.History(),
		ActivePairings:      s.pairings.Active(),
		CompletedPairings:   s.pairings.Completed(),
		CancelledPairingIDs: s.pairings.cancelledIDs(),
	}
	if cur, ok := s.scheduler.Current(); ok {
		snap.CurrentSession = &cur
	}
	return snap
}

// restore loads snap into a freshly built container; on error the container
// must be discarded.
func (s *state) restore(snap Snapshot) error {
	s.users.restore(snap.Users)
	for _, p := range snap.ActivePairings {
		for _, uid := range []string{p.UserA, p.UserB} {
			if _, ok := s.users.Get(uid); !ok {
				return fmt.Errorf("%w: active pairing %s references unknown user %q", ErrInvalidState, p.ID, uid)
			}
		}
	}
	if err := s.pairings.restore(snap.ActivePairings, snap.CompletedPairings, snap.CancelledPairingIDs); err != nil {
		return err
	}
	if len(snap.Countries) > 0 {
		s.catalog.restore(snap.Countries)
	}
	s.scheduler.restore(snap.CurrentSession, snap.PastSessions)
	s.catalog.RecomputeAvailability(s.users.ActiveCountries())
	return nil
}
