package services

import (
	"fmt"
	"sort"
	"strings"

	"pingpair/models"
	"pingpair/utils"
)

const stubFlag = "🏳️"

// CountryProvider supplies records for names outside the seed set.
type CountryProvider interface {
	Describe(name string) (models.Country, bool)
}

// StaticCountryProvider serves records from a fixed map keyed by canonical name.
type StaticCountryProvider map[string]models.Country

func (p StaticCountryProvider) Describe(name string) (models.Country, bool) {
	key := utils.CountryKey(name)
	for canonical, c := range p {
		if utils.CountryKey(canonical) == key {
			return c.Clone(), true
		}
	}
	return models.Country{}, false
}

// Catalog is the registry of countries keyed by canonical name.
// Lookups are case- and diacritic-insensitive and alias-aware.
type Catalog struct {
	countries map[string]*models.Country // canonical name -> record
	keys      map[string]string          // folded name or alias -> canonical name
	provider  CountryProvider
}

func NewCatalog(seed []models.Country, aliases map[string]string, provider CountryProvider) *Catalog {
	c := &Catalog{
		countries: make(map[string]*models.Country, len(seed)),
		keys:      make(map[string]string, len(seed)+len(aliases)),
		provider:  provider,
	}
	for _, country := range seed {
		c.put(country)
	}
	for alias, canonical := range aliases {
		c.keys[utils.CountryKey(alias)] = canonical
	}
	return c
}

func (c *Catalog) put(country models.Country) {
	rec := country.Clone()
	c.countries[rec.Name] = &rec
	c.keys[utils.CountryKey(rec.Name)] = rec.Name
}

func (c *Catalog) find(name string) (*models.Country, bool) {
	canonical, ok := c.keys[utils.CountryKey(name)]
	if !ok {
		return nil, false
	}
	rec, ok := c.countries[canonical]
	return rec, ok
}

// Lookup returns a copy of the country record, if present.
func (c *Catalog) Lookup(name string) (models.Country, bool) {
	rec, ok := c.find(name)
	if !ok {
		return models.Country{}, false
	}
	return rec.Clone(), true
}

// UpsertStub returns the existing record for name or creates one: from the
// provider when it knows the country, otherwise a placeholder stub.
func (c *Catalog) UpsertStub(name string) (models.Country, error) {
	if strings.TrimSpace(name) == "" {
		return models.Country{}, fmt.Errorf("%w: country name is required", ErrInvalidInput)
	}
	if IsUnknownCountry(name) {
		return models.Country{}, fmt.Errorf("%w: %q is not a country", ErrInvalidInput, name)
	}
	if rec, ok := c.find(name); ok {
		return rec.Clone(), nil
	}

	// An alias may point at a canonical name the provider knows about.
	lookupName := name
	if canonical, ok := c.keys[utils.CountryKey(name)]; ok {
		lookupName = canonical
	}

	var country models.Country
	if c.provider != nil {
		if known, ok := c.provider.Describe(lookupName); ok {
			country = known
		}
	}
	if country.Name == "" {
		country = stubCountry(utils.CanonicalCountryName(lookupName))
	}
	country.Available = false
	c.put(country)
	if lookupName != name {
		c.keys[utils.CountryKey(name)] = country.Name
	}
	return country.Clone(), nil
}

// IsUnknownCountry reports whether name spells the "Unknown" home-country sentinel.
func IsUnknownCountry(name string) bool {
	return utils.CountryKey(name) == utils.CountryKey(models.UnknownCountry)
}

func stubCountry(name string) models.Country {
	return models.Country{
		Name: name,
		Flag: stubFlag,
		FunFacts: []string{
			"A wonderful country to discover!",
			"Has unique customs and traditions",
		},
		Traditions: []string{"Various cultural traditions"},
		Languages:  []string{"Unknown"},
		Continent:  "Unknown",
		Population: 0,
		Capital:    "Unknown",
		Currency:   "Unknown",
		Stub:       true,
	}
}

// RecomputeAvailability sets every country's Available flag to membership of
// its name in activeUserCountries. O(countries).
func (c *Catalog) RecomputeAvailability(activeUserCountries map[string]struct{}) {
	folded := make(map[string]struct{}, len(activeUserCountries))
	for name := range activeUserCountries {
		folded[utils.CountryKey(name)] = struct{}{}
	}
	for name, rec := range c.countries {
		_, ok := folded[utils.CountryKey(name)]
		rec.Available = ok
	}
}

// Available returns copies of available countries, sorted by name.
func (c *Catalog) Available() []models.Country {
	out := make([]models.Country, 0)
	for _, rec := range c.countries {
		if rec.Available {
			out = append(out, rec.Clone())
		}
	}
	sortCountries(out)
	return out
}

// All returns copies of every country, sorted by name.
func (c *Catalog) All() []models.Country {
	out := make([]models.Country, 0, len(c.countries))
	for _, rec := range c.countries {
		out = append(out, rec.Clone())
	}
	sortCountries(out)
	return out
}

// Spotlightable returns copies of every non-stub country, sorted by name.
// Placeholder stubs carry no real facts and are never featured.
func (c *Catalog) Spotlightable() []models.Country {
	out := make([]models.Country, 0, len(c.countries))
	for _, rec := range c.countries {
		if !rec.Stub {
			out = append(out, rec.Clone())
		}
	}
	sortCountries(out)
	return out
}

func (c *Catalog) Len() int {
	return len(c.countries)
}

// restore replaces every record; aliases are kept.
func (c *Catalog) restore(countries []models.Country) {
	c.countries = make(map[string]*models.Country, len(countries))
	for _, country := range countries {
		c.put(country)
	}
}

func sortCountries(list []models.Country) {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}
