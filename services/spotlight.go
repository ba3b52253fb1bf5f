package services

import (
	"pingpair/models"
)

// RandomSource is the randomness used for spotlight sampling and shuffling.
// *math/rand.Rand satisfies it; tests pass a seeded one.
type RandomSource interface {
	Intn(n int) int
}

// SpotlightSelector picks the countries that headline a new session.
type SpotlightSelector struct {
	catalog *Catalog
	users   *UserDirectory
	rnd     RandomSource
}

func NewSpotlightSelector(catalog *Catalog, users *UserDirectory, rnd RandomSource) *SpotlightSelector {
	return &SpotlightSelector{catalog: catalog, users: users, rnd: rnd}
}

// ChooseSpotlights returns up to count distinct countries:
//   - count sampled from the available set when it is large enough;
//   - the whole available set, unpadded, when it is non-empty but smaller;
//   - min(count, seeded countries) sampled from the non-stub catalog when nothing is available.
func (s *SpotlightSelector) ChooseSpotlights(count int) []models.Country {
	if count <= 0 {
		return []models.Country{}
	}
	s.catalog.RecomputeAvailability(s.users.ActiveCountries())

	available := s.catalog.Available()
	switch {
	case len(available) >= count:
		return sampleCountries(available, count, s.rnd)
	case len(available) > 0:
		return available
	default:
		return sampleCountries(s.catalog.Spotlightable(), count, s.rnd)
	}
}

// sampleCountries draws min(count, len(list)) distinct entries uniformly
// without replacement (partial Fisher-Yates). list is reordered in place.
func sampleCountries(list []models.Country, count int, rnd RandomSource) []models.Country {
	if count > len(list) {
		count = len(list)
	}
	for i := 0; i < count; i++ {
		j := i + rnd.Intn(len(list)-i)
		list[i], list[j] = list[j], list[i]
	}
	return list[:count]
}

func shuffleStrings(list []string, rnd RandomSource) {
	for i := len(list) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		list[i], list[j] = list[j], list[i]
	}
}
