// models/tier.go
package models

// Tier is a named Strix score bracket used for display.
type Tier int

const (
	TierNewcomer Tier = iota
	TierExplorer
	TierConnector
	TierNetworker
	TierGlobalAmbassador
)

// TierThresholds: minimum score for each tier (inclusive-low, exclusive-high)
var TierThresholds = map[Tier]uint64{
	TierNewcomer:         0,
	TierExplorer:         10,
	TierConnector:        50,
	TierNetworker:        100,
	TierGlobalAmbassador: 200,
}

func (t Tier) String() string {
	switch t {
	case TierNewcomer:
		return "Newcomer"
	case TierExplorer:
		return "Explorer"
	case TierConnector:
		return "Connector"
	case TierNetworker:
		return "Networker"
	case TierGlobalAmbassador:
		return "Global Ambassador"
	default:
		return "Unknown"
	}
}

// MarshalText keeps JSON output readable ("Explorer" instead of 1).
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
