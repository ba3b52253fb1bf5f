package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pingpair/models"
)

func newSelector(t *testing.T, seed int64, homes map[string]string) *SpotlightSelector {
	t.Helper()
	catalog := newSeedCatalog()
	users := NewUserDirectory(5, 0)
	for id, country := range homes {
		_, err := users.Create(id, id, epoch)
		require.NoError(t, err)
		c := country
		_, _, err = users.UpdateProfile(id, ProfileUpdate{Country: &c})
		require.NoError(t, err)
	}
	return NewSpotlightSelector(catalog, users, rand.New(rand.NewSource(seed)))
}

func countryNames(list []models.Country) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}

func TestChooseSpotlightsEmptyAvailableFallsBackToCatalog(t *testing.T) {
	catalogSize := len(DefaultCountries())

	for _, count := range []int{1, 3, catalogSize, catalogSize + 4} {
		s := newSelector(t, 1, nil)
		got := s.ChooseSpotlights(count)

		want := count
		if want > catalogSize {
			want = catalogSize
		}
		require.Len(t, got, want, "count %d", count)
		names := countryNames(got)
		assert.ElementsMatch(t, names, uniqueStrings(names), "spotlights must be distinct")
		for _, c := range got {
			assert.False(t, c.Available)
		}
	}
}

func TestChooseSpotlightsFallbackSkipsStubs(t *testing.T) {
	seeded := map[string]struct{}{}
	for _, c := range DefaultCountries() {
		seeded[c.Name] = struct{}{}
	}

	for seed := int64(0); seed < 20; seed++ {
		s := newSelector(t, seed, nil)
		for _, name := range []string{"Atlantis", "Narnia", "Mordor", "Oz", "Wakanda", "Genovia", "Latveria"} {
			_, err := s.catalog.UpsertStub(name)
			require.NoError(t, err)
		}

		got := s.ChooseSpotlights(3)
		require.Len(t, got, 3)
		for _, c := range got {
			assert.False(t, c.Stub, "seed %d featured stub %q", seed, c.Name)
			assert.Contains(t, seeded, c.Name)
		}
	}
}

func TestChooseSpotlightsSamplesAvailable(t *testing.T) {
	homes := map[string]string{"u1": "Japan", "u2": "Kenya", "u3": "Egypt", "u4": "Brazil"}

	for seed := int64(0); seed < 20; seed++ {
		s := newSelector(t, seed, homes)
		got := s.ChooseSpotlights(3)
		require.Len(t, got, 3)
		names := countryNames(got)
		assert.Len(t, uniqueStrings(names), 3)
		for _, c := range got {
			assert.True(t, c.Available, "%s should be available", c.Name)
			assert.NotEqual(t, "India", c.Name)
		}
	}
}

func TestChooseSpotlightsDoesNotPadSmallAvailableSet(t *testing.T) {
	s := newSelector(t, 3, map[string]string{"u1": "Japan", "u2": "Japan"})
	got := s.ChooseSpotlights(3)
	assert.Equal(t, []string{"Japan"}, countryNames(got))
}

func TestChooseSpotlightsIgnoresInactiveUsers(t *testing.T) {
	s := newSelector(t, 3, map[string]string{"u1": "Japan", "u2": "Kenya"})
	require.NoError(t, s.users.Deactivate("u2"))

	got := s.ChooseSpotlights(3)
	assert.Equal(t, []string{"Japan"}, countryNames(got))
}

func TestChooseSpotlightsIsDeterministicForSeed(t *testing.T) {
	a := newSelector(t, 99, nil).ChooseSpotlights(3)
	b := newSelector(t, 99, nil).ChooseSpotlights(3)
	assert.Equal(t, countryNames(a), countryNames(b))
}

func TestChooseSpotlightsZeroCount(t *testing.T) {
	s := newSelector(t, 1, nil)
	assert.Empty(t, s.ChooseSpotlights(0))
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
