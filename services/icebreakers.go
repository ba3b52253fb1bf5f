package services

import (
	"fmt"
	"hash/fnv"
	"strings"

	"pingpair/models"
)

const closingIcebreaker = "What is one custom from home you would love to share with your partner?"

// IcebreakerSource returns conversation starters for a new pairing.
type IcebreakerSource func(country, pairingID string) []string

// Icebreakers builds the questions shown to a pairing featuring c. key picks
// which tradition and fact are quoted, so different pairings around the same
// country get different prompts while one pairing always gets the same set.
func Icebreakers(c models.Country, key string) []string {
	if strings.TrimSpace(c.Name) == "" {
		return []string{closingIcebreaker}
	}
	pick := variant(key)

	out := []string{fmt.Sprintf("What would you most like to learn about %s?", c.Name)}
	if !c.Stub && len(c.Traditions) > 0 {
		tradition := c.Traditions[pick%uint32(len(c.Traditions))]
		out = append(out, fmt.Sprintf("Have you ever experienced %s, or something like it where you live?", tradition))
	} else {
		out = append(out, fmt.Sprintf("What's your favorite %s tradition?", c.Name))
	}
	if !c.Stub && len(c.FunFacts) > 0 {
		fact := strings.TrimSuffix(c.FunFacts[pick%uint32(len(c.FunFacts))], ".")
		out = append(out, fmt.Sprintf("%s fact: %s. Did that surprise you?", c.Name, fact))
	}
	if !c.Stub && c.Capital != "" {
		out = append(out, fmt.Sprintf("Would you like to visit %s someday?", c.Capital))
	}
	return append(out, closingIcebreaker)
}

func variant(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}
