// models/pairing.go
package models

import "time"

type PairingStatus string

const (
	PairingStatusActive    PairingStatus = "active"
	PairingStatusCompleted PairingStatus = "completed"
	PairingStatusCancelled PairingStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s PairingStatus) Terminal() bool {
	return s == PairingStatusCompleted || s == PairingStatusCancelled
}

// Pairing is a two-user match around one spotlight country.
type Pairing struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id,omitempty"`
	UserA       string        `json:"user_a"`
	UserB       string        `json:"user_b"`
	Country     string        `json:"country"`
	MeetingLink string        `json:"meeting_link,omitempty"`
	Icebreakers []string      `json:"icebreakers,omitempty"` // conversation starters about Country
	Status      PairingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"` // set on completion or cancellation
}

// Involves reports whether userID is one of the two participants.
func (p Pairing) Involves(userID string) bool {
	return p.UserA == userID || p.UserB == userID
}

// Partner returns the other participant, or "" if userID is not in the pairing.
func (p Pairing) Partner(userID string) string {
	switch userID {
	case p.UserA:
		return p.UserB
	case p.UserB:
		return p.UserA
	}
	return ""
}

func (p Pairing) Clone() Pairing {
	out := p
	out.Icebreakers = cloneStrings(p.Icebreakers)
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		out.ClosedAt = &t
	}
	return out
}
