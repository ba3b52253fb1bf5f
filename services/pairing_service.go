package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pingpair/models"
)

// CompletionListener runs after a pairing moves to Completed.
type CompletionListener func(models.Pairing)

// PairingEngine forms and closes pairings. A user holds at most one Active
// pairing at a time; Completed and Cancelled are terminal.
type PairingEngine struct {
	active    map[string]*models.Pairing // pairing id -> pairing
	byUser    map[string]string          // user id -> active pairing id
	completed []models.Pairing
	closed    map[string]models.PairingStatus // terminal status by pairing id

	newID          func() string
	now            func() time.Time
	meetingBaseURL string
	icebreakers    IcebreakerSource
	listeners      []CompletionListener
}

func NewPairingEngine(newID func() string, now func() time.Time, meetingBaseURL string) *PairingEngine {
	if now == nil {
		now = time.Now
	}
	return &PairingEngine{
		active:         make(map[string]*models.Pairing),
		byUser:         make(map[string]string),
		closed:         make(map[string]models.PairingStatus),
		newID:          newID,
		now:            now,
		meetingBaseURL: strings.TrimRight(meetingBaseURL, "/"),
	}
}

// OnComplete registers a listener; listeners run in registration order.
func (e *PairingEngine) OnComplete(fn CompletionListener) {
	e.listeners = append(e.listeners, fn)
}

// UseIcebreakers sets the source of conversation starters attached to every
// newly formed pairing.
func (e *PairingEngine) UseIcebreakers(fn IcebreakerSource) {
	e.icebreakers = fn
}

// FormPairing creates an Active pairing between two distinct free users.
func (e *PairingEngine) FormPairing(userA, userB, country string) (models.Pairing, error) {
	return e.form("", userA, userB, country)
}

func (e *PairingEngine) form(sessionID, userA, userB, country string) (models.Pairing, error) {
	if userA == "" || userB == "" {
		return models.Pairing{}, fmt.Errorf("%w: both user ids are required", ErrInvalidInput)
	}
	if userA == userB {
		return models.Pairing{}, fmt.Errorf("%w: user %q cannot be paired with themselves", ErrInvalidPairing, userA)
	}
	for _, id := range []string{userA, userB} {
		if pid, busy := e.byUser[id]; busy {
			return models.Pairing{}, fmt.Errorf("%w: user %q already in active pairing %s", ErrInvalidPairing, id, pid)
		}
	}

	id := e.newID()
	p := &models.Pairing{
		ID:          id,
		SessionID:   sessionID,
		UserA:       userA,
		UserB:       userB,
		Country:     country,
		MeetingLink: fmt.Sprintf("%s/pingpair-%s", e.meetingBaseURL, id),
		Status:      models.PairingStatusActive,
		CreatedAt:   e.now(),
	}
	if e.icebreakers != nil {
		p.Icebreakers = e.icebreakers(country, id)
	}
	e.active[id] = p
	e.byUser[userA] = id
	e.byUser[userB] = id
	return p.Clone(), nil
}

// lookupActive returns the active pairing or the error kind for its id:
// InvalidState if it was already closed, NotFound if it never existed.
func (e *PairingEngine) lookupActive(id string) (*models.Pairing, error) {
	if p, ok := e.active[id]; ok {
		return p, nil
	}
	if status, ok := e.closed[id]; ok {
		return nil, fmt.Errorf("%w: pairing %s is already %s", ErrInvalidState, id, status)
	}
	return nil, fmt.Errorf("%w: pairing %s", ErrNotFound, id)
}

// CompletePairing moves an Active pairing to the completed log and notifies
// the completion listeners.
func (e *PairingEngine) CompletePairing(id string) (models.Pairing, error) {
	p, err := e.lookupActive(id)
	if err != nil {
		return models.Pairing{}, err
	}
	done := e.close(p, models.PairingStatusCompleted)
	e.completed = append(e.completed, done)
	for _, fn := range e.listeners {
		fn(done.Clone())
	}
	return done.Clone(), nil
}

// CancelPairing releases both users; nothing is logged and no score changes.
func (e *PairingEngine) CancelPairing(id string) (models.Pairing, error) {
	p, err := e.lookupActive(id)
	if err != nil {
		return models.Pairing{}, err
	}
	return e.close(p, models.PairingStatusCancelled), nil
}

func (e *PairingEngine) close(p *models.Pairing, status models.PairingStatus) models.Pairing {
	t := e.now()
	p.Status = status
	p.ClosedAt = &t
	delete(e.active, p.ID)
	delete(e.byUser, p.UserA)
	delete(e.byUser, p.UserB)
	e.closed[p.ID] = status
	return p.Clone()
}

// ActiveFor returns the user's active pairing, if any.
func (e *PairingEngine) ActiveFor(userID string) (models.Pairing, bool) {
	pid, ok := e.byUser[userID]
	if !ok {
		return models.Pairing{}, false
	}
	return e.active[pid].Clone(), true
}

// Get returns the active pairing with id.
func (e *PairingEngine) Get(id string) (models.Pairing, error) {
	p, err := e.lookupActive(id)
	if err != nil {
		return models.Pairing{}, err
	}
	return p.Clone(), nil
}

func (e *PairingEngine) HasActive(userID string) bool {
	_, ok := e.byUser[userID]
	return ok
}

// Active returns copies of active pairings, oldest first.
func (e *PairingEngine) Active() []models.Pairing {
	out := make([]models.Pairing, 0, len(e.active))
	for _, p := range e.active {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Completed returns the completed log in completion order.
func (e *PairingEngine) Completed() []models.Pairing {
	out := make([]models.Pairing, len(e.completed))
	for i, p := range e.completed {
		out[i] = p.Clone()
	}
	return out
}

// cancelledIDs lists ids of cancelled pairings, sorted.
func (e *PairingEngine) cancelledIDs() []string {
	out := make([]string, 0)
	for id, status := range e.closed {
		if status == models.PairingStatusCancelled {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// restore rebuilds the engine state. It fails if a user appears in more than
// one active pairing or an id is reused.
func (e *PairingEngine) restore(active, completed []models.Pairing, cancelled []string) error {
	e.active = make(map[string]*models.Pairing, len(active))
	e.byUser = make(map[string]string, len(active)*2)
	e.closed = make(map[string]models.PairingStatus, len(completed)+len(cancelled))
	e.completed = make([]models.Pairing, 0, len(completed))

	for _, p := range completed {
		e.completed = append(e.completed, p.Clone())
		e.closed[p.ID] = models.PairingStatusCompleted
	}
	for _, id := range cancelled {
		e.closed[id] = models.PairingStatusCancelled
	}
	for _, p := range active {
		if _, dup := e.closed[p.ID]; dup {
			return fmt.Errorf("%w: pairing %s is both active and closed", ErrInvalidState, p.ID)
		}
		if _, dup := e.active[p.ID]; dup {
			return fmt.Errorf("%w: duplicate active pairing %s", ErrInvalidState, p.ID)
		}
		if p.UserA == p.UserB {
			return fmt.Errorf("%w: pairing %s pairs %q with themselves", ErrInvalidPairing, p.ID, p.UserA)
		}
		for _, uid := range []string{p.UserA, p.UserB} {
			if other, busy := e.byUser[uid]; busy {
				return fmt.Errorf("%w: user %q in active pairings %s and %s", ErrInvalidPairing, uid, other, p.ID)
			}
		}
		rec := p.Clone()
		rec.Status = models.PairingStatusActive
		e.active[rec.ID] = &rec
		e.byUser[rec.UserA] = rec.ID
		e.byUser[rec.UserB] = rec.ID
	}
	return nil
}
