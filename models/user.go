// models/user.go
package models

import (
	"strings"
	"time"
)

const (
	UnknownCountry  = "Unknown"
	DefaultTimezone = "UTC"
)

// UserProfile is a participant in the pairing cycles.
// Profiles are never hard-deleted; Active=false takes a user out of matching.
type UserProfile struct {
	ID       string `json:"id"` // platform-stable user id
	Name     string `json:"name"`
	Country  string `json:"country"`  // home country, "Unknown" until set
	Timezone string `json:"timezone"` // free-form, see services.ParseTimezone
	Bio      string `json:"bio"`

	Interests []string `json:"interests"`
	Languages []string `json:"languages"`

	// Strix score and progression
	Score             uint64     `json:"score"`
	Badges            []Badge    `json:"badges"`
	CountriesVisited  []string   `json:"countries_visited"`
	CompletedPairings int64      `json:"completed_pairings"`
	Streak            int64      `json:"streak"`      // consecutive completions within the streak window
	BestStreak        int64      `json:"best_streak"` // highest Streak ever reached
	LastPairedAt      *time.Time `json:"last_paired_at,omitempty"`

	Active   bool      `json:"active"`
	SkipNext bool      `json:"skip_next"`
	JoinedAt time.Time `json:"joined_at"`
}

// Clone returns a deep copy so callers never share slices with the directory.
func (u UserProfile) Clone() UserProfile {
	out := u
	out.Interests = cloneStrings(u.Interests)
	out.Languages = cloneStrings(u.Languages)
	out.CountriesVisited = cloneStrings(u.CountriesVisited)
	if u.Badges != nil {
		out.Badges = make([]Badge, len(u.Badges))
		copy(out.Badges, u.Badges)
	}
	if u.LastPairedAt != nil {
		t := *u.LastPairedAt
		out.LastPairedAt = &t
	}
	return out
}

// HasInterest reports whether the interest is already present (case-insensitive).
func (u UserProfile) HasInterest(interest string) bool {
	return containsFold(u.Interests, interest)
}

// HasBadge reports whether a badge with the given code was already earned.
func (u UserProfile) HasBadge(code string) bool {
	for _, b := range u.Badges {
		if b.Code == code {
			return true
		}
	}
	return false
}

// HasVisited reports whether the country is already in CountriesVisited.
func (u UserProfile) HasVisited(country string) bool {
	return containsFold(u.CountriesVisited, country)
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
