package services

import (
	"pingpair/models"
)

// DefaultCountries is the seed catalog used for spotlights when no user-backed
// country is available.
func DefaultCountries() []models.Country {
	return []models.Country{
		{
			Name: "Kenya",
			Flag: "🇰🇪",
			FunFacts: []string{
				"Home to over 40 ethnic groups",
				"Birthplace of marathon champions",
				"Famous for wildlife safaris",
				"Has the Great Rift Valley",
				"Home to the Maasai Mara National Reserve",
			},
			Traditions: []string{
				"Maasai jumping dance",
				"Samburu wedding ceremonies",
				"Kenyan long-distance running culture",
			},
			Languages:  []string{"Swahili", "English"},
			Continent:  "Africa",
			Population: 53_700_000,
			Capital:    "Nairobi",
			Currency:   "Kenyan Shilling",
		},
		{
			Name: "India",
			Flag: "🇮🇳",
			FunFacts: []string{
				"World's largest democracy",
				"Home to Bollywood",
				"Known for diverse cuisine and spices",
				"Birthplace of four major religions",
			},
			Traditions: []string{
				"Diwali festival of lights",
				"Holi color festival",
				"Classical dance forms like Bharatanatyam",
			},
			Languages:  []string{"Hindi", "English", "Bengali", "Tamil"},
			Continent:  "Asia",
			Population: 1_380_000_000,
			Capital:    "New Delhi",
			Currency:   "Indian Rupee",
		},
		{
			Name: "Brazil",
			Flag: "🇧🇷",
			FunFacts: []string{
				"Famous for Carnival and samba",
				"Home to most of the Amazon rainforest",
				"Soccer is a national passion",
				"World's largest producer of coffee",
			},
			Traditions: []string{
				"Carnival celebrations",
				"Capoeira martial art",
				"Festa Junina harvest festival",
			},
			Languages:  []string{"Portuguese"},
			Continent:  "South America",
			Population: 212_600_000,
			Capital:    "Brasília",
			Currency:   "Brazilian Real",
		},
		{
			Name: "Japan",
			Flag: "🇯🇵",
			FunFacts: []string{
				"Island nation with over 6,800 islands",
				"Home to Mount Fuji",
				"Known for anime, manga and video games",
				"Has the world's oldest company (founded 578 AD)",
			},
			Traditions: []string{
				"Cherry blossom viewing (Hanami)",
				"Tea ceremonies",
				"Sumo wrestling",
			},
			Languages:  []string{"Japanese"},
			Continent:  "Asia",
			Population: 126_300_000,
			Capital:    "Tokyo",
			Currency:   "Japanese Yen",
		},
		{
			Name: "Egypt",
			Flag: "🇪🇬",
			FunFacts: []string{
				"Home to the ancient pyramids",
				"The Nile is the longest river in the world",
				"Has a history spanning over 6,000 years",
			},
			Traditions: []string{
				"Sham el-Nessim spring festival",
				"Ramadan lanterns (fanous)",
				"Tanoura dance",
			},
			Languages:  []string{"Arabic"},
			Continent:  "Africa",
			Population: 102_300_000,
			Capital:    "Cairo",
			Currency:   "Egyptian Pound",
		},
	}
}

// DefaultAliases maps alternative spellings to canonical catalog names.
func DefaultAliases() map[string]string {
	return map[string]string{
		"usa":                      "United States",
		"us":                       "United States",
		"america":                  "United States",
		"united states of america": "United States",
		"uk":                       "United Kingdom",
		"great britain":            "United Kingdom",
		"nippon":                   "Japan",
		"bharat":                   "India",
		"brasil":                   "Brazil",
	}
}

// KnownCountries is a provider for records outside the seed set that we still
// have real data for. Names it does not know become stubs.
func KnownCountries() CountryProvider {
	return StaticCountryProvider{
		"United States": {
			Name: "United States",
			Flag: "🇺🇸",
			FunFacts: []string{
				"Has 50 states and numerous territories",
				"World's largest economy",
				"Home to Hollywood",
			},
			Traditions: []string{
				"Thanksgiving celebrations",
				"Independence Day fireworks",
				"Super Bowl Sunday",
			},
			Languages:  []string{"English", "Spanish"},
			Continent:  "North America",
			Population: 331_000_000,
			Capital:    "Washington, D.C.",
			Currency:   "US Dollar",
		},
		"United Kingdom": {
			Name: "United Kingdom",
			Flag: "🇬🇧",
			FunFacts: []string{
				"Made up of England, Scotland, Wales and Northern Ireland",
				"Birthplace of football and cricket",
			},
			Traditions: []string{
				"Afternoon tea",
				"Bonfire Night",
			},
			Languages:  []string{"English", "Welsh"},
			Continent:  "Europe",
			Population: 67_000_000,
			Capital:    "London",
			Currency:   "Pound Sterling",
		},
	}
}
