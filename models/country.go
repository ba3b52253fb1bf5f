// models/country.go
package models

// Country is a catalog entry. Available is derived: at least one active user
// has this country as home country.
type Country struct {
	Name       string   `json:"name"` // canonical name, unique key
	Flag       string   `json:"flag"`
	FunFacts   []string `json:"fun_facts"`
	Traditions []string `json:"traditions"`
	Languages  []string `json:"languages"`
	Continent  string   `json:"continent"`
	Population uint64   `json:"population"`
	Capital    string   `json:"capital"`
	Currency   string   `json:"currency"`
	Available  bool     `json:"available"`
	Stub       bool     `json:"stub,omitempty"` // placeholder created for a name outside the seed set
}

func (c Country) Clone() Country {
	out := c
	out.FunFacts = cloneStrings(c.FunFacts)
	out.Traditions = cloneStrings(c.Traditions)
	out.Languages = cloneStrings(c.Languages)
	return out
}
