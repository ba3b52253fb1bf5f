// services/users.go
package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pingpair/models"
	"pingpair/utils"
)

// ProfileUpdate carries field-level profile changes; nil/empty fields are left alone.
type ProfileUpdate struct {
	Name         *string
	Country      *string // canonical name; Matchmaker resolves it through Catalog.UpsertStub
	Timezone     *string // normalised by Matchmaker through NormalizeTimezone
	Bio          *string
	AddInterests []string
	AddLanguages []string
}

// UserDirectory owns UserProfile records keyed by user id.
type UserDirectory struct {
	users         map[string]*models.UserProfile
	startingScore uint64
	streakWindow  time.Duration
}

// NewUserDirectory creates an empty directory. Completions closer together
// than streakWindow extend a user's streak; zero uses the default window.
func NewUserDirectory(startingScore uint64, streakWindow time.Duration) *UserDirectory {
	if streakWindow <= 0 {
		streakWindow = DefaultConfig().StreakWindow
	}
	return &UserDirectory{
		users:         make(map[string]*models.UserProfile),
		startingScore: startingScore,
		streakWindow:  streakWindow,
	}
}

func notFoundUser(id string) error {
	return fmt.Errorf("%w: user %q", ErrNotFound, id)
}

// Get is a pure lookup returning a copy. Surrounding whitespace in id is ignored.
func (d *UserDirectory) Get(id string) (models.UserProfile, bool) {
	u, ok := d.users[strings.TrimSpace(id)]
	if !ok {
		return models.UserProfile{}, false
	}
	return u.Clone(), true
}

func (d *UserDirectory) profile(id string) (*models.UserProfile, error) {
	u, ok := d.users[strings.TrimSpace(id)]
	if !ok {
		return nil, notFoundUser(id)
	}
	return u, nil
}

// Create registers a new active profile with the starting score.
// An existing id fails with ErrAlreadyExists; use Reactivate for returning users.
func (d *UserDirectory) Create(id, name string, now time.Time) (models.UserProfile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.UserProfile{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if _, exists := d.users[id]; exists {
		return models.UserProfile{}, fmt.Errorf("%w: user %q", ErrAlreadyExists, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}

	u := &models.UserProfile{
		ID:               id,
		Name:             name,
		Country:          models.UnknownCountry,
		Timezone:         models.DefaultTimezone,
		Interests:        []string{},
		Languages:        []string{},
		Badges:           []models.Badge{},
		CountriesVisited: []string{},
		Score:            d.startingScore,
		Active:           true,
		JoinedAt:         now,
	}
	d.users[id] = u
	return u.Clone(), nil
}

// Reactivate sets Active on an existing profile; score and history are untouched.
func (d *UserDirectory) Reactivate(id string) (models.UserProfile, error) {
	u, err := d.profile(id)
	if err != nil {
		return models.UserProfile{}, err
	}
	u.Active = true
	return u.Clone(), nil
}

// UpdateProfile applies upd and returns the updated profile plus the interests
// that were actually new. Duplicate interests are a no-op.
func (d *UserDirectory) UpdateProfile(id string, upd ProfileUpdate) (models.UserProfile, []string, error) {
	u, err := d.profile(id)
	if err != nil {
		return models.UserProfile{}, nil, err
	}

	if upd.Name != nil {
		if name := strings.TrimSpace(*upd.Name); name != "" {
			u.Name = name
		}
	}
	if upd.Country != nil {
		if country := strings.TrimSpace(*upd.Country); country != "" {
			u.Country = country
		}
	}
	if upd.Timezone != nil {
		if tz := strings.TrimSpace(*upd.Timezone); tz != "" {
			u.Timezone = tz
		}
	}
	if upd.Bio != nil {
		u.Bio = strings.TrimSpace(*upd.Bio)
	}

	var added []string
	for _, interest := range utils.CleanList(upd.AddInterests) {
		if u.HasInterest(interest) {
			continue
		}
		u.Interests = append(u.Interests, interest)
		added = append(added, interest)
	}
	for _, lang := range utils.CleanList(upd.AddLanguages) {
		if containsFold(u.Languages, lang) {
			continue
		}
		u.Languages = append(u.Languages, lang)
	}

	return u.Clone(), added, nil
}

// SetSkipNext toggles the one-shot skip flag read by the session scheduler.
func (d *UserDirectory) SetSkipNext(id string, skip bool) error {
	u, err := d.profile(id)
	if err != nil {
		return err
	}
	u.SkipNext = skip
	return nil
}

// clearSkip consumes the skip flag; unknown ids are ignored.
func (d *UserDirectory) clearSkip(id string) {
	if u, ok := d.users[id]; ok {
		u.SkipNext = false
	}
}

// Deactivate takes the user out of matching without removing history.
func (d *UserDirectory) Deactivate(id string) error {
	u, err := d.profile(id)
	if err != nil {
		return err
	}
	u.Active = false
	return nil
}

// RecordCompletion appends the pairing country to CountriesVisited
// (de-duplicated), bumps the completed-pairings counter and advances the
// streak. A completion within the streak window of the previous one extends
// the streak; a longer gap restarts it at 1.
func (d *UserDirectory) RecordCompletion(id, country string, at time.Time) error {
	u, err := d.profile(id)
	if err != nil {
		return err
	}
	if country != "" && !u.HasVisited(country) {
		u.CountriesVisited = append(u.CountriesVisited, country)
	}
	u.CompletedPairings++

	if u.LastPairedAt != nil && at.Sub(*u.LastPairedAt) <= d.streakWindow {
		u.Streak++
	} else {
		u.Streak = 1
	}
	if u.Streak > u.BestStreak {
		u.BestStreak = u.Streak
	}
	t := at
	u.LastPairedAt = &t
	return nil
}

// ActiveCountries returns the home countries of active users.
func (d *UserDirectory) ActiveCountries() map[string]struct{} {
	out := make(map[string]struct{})
	for _, u := range d.users {
		if u.Active && u.Country != "" && u.Country != models.UnknownCountry {
			out[u.Country] = struct{}{}
		}
	}
	return out
}

// All returns copies of every profile sorted by id.
func (d *UserDirectory) All() []models.UserProfile {
	out := make([]models.UserProfile, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *UserDirectory) Len() int {
	return len(d.users)
}

func (d *UserDirectory) restore(users []models.UserProfile) {
	d.users = make(map[string]*models.UserProfile, len(users))
	for _, u := range users {
		rec := u.Clone()
		d.users[rec.ID] = &rec
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
