// models/session.go
package models

import "time"

// Session is one matching cycle. Immutable once archived.
type Session struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	FeaturedCountries []string  `json:"featured_countries"`
	Pairings          []Pairing `json:"pairings"`

	// Users eligible this cycle who were left without a partner (odd count).
	Unpaired []string `json:"unpaired,omitempty"`
	// Users whose one-shot skip flag was consumed by this cycle.
	Skipped []string `json:"skipped,omitempty"`
}

func (s Session) Clone() Session {
	out := s
	out.FeaturedCountries = cloneStrings(s.FeaturedCountries)
	out.Unpaired = cloneStrings(s.Unpaired)
	out.Skipped = cloneStrings(s.Skipped)
	if s.Pairings != nil {
		out.Pairings = make([]Pairing, len(s.Pairings))
		for i, p := range s.Pairings {
			out.Pairings[i] = p.Clone()
		}
	}
	return out
}
