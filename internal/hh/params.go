package hh

import (
	"fmt"
	"net/url"
)

// SearchParameters captures the vacancy listing filters. Zero values are
// omitted from the request entirely; the provider treats a missing parameter
// and an empty one differently.
type SearchParameters struct {
	Text        string
	SearchField string
	Experience  string
	Employment  string
	Schedule    string
	// Areas holds one or more region codes, passed as repeated parameters.
	Areas []string
}

// Validate rejects parameter combinations the provider would refuse.
// SearchField without Text is fine: Values omits search_field whenever text
// is absent, so the default configuration stays usable.
func (s SearchParameters) Validate() error {
	if len(s.Areas) == 0 {
		return fmt.Errorf("at least one area code is required")
	}
	return nil
}

// Values renders the filters as URL query parameters.
func (s SearchParameters) Values() url.Values {
	params := url.Values{}
	for _, area := range s.Areas {
		params.Add("area", area)
	}
	if s.Text != "" {
		params.Set("text", s.Text)
		if s.SearchField != "" {
			params.Set("search_field", s.SearchField)
		}
	}
	if s.Experience != "" {
		params.Set("experience", s.Experience)
	}
	if s.Employment != "" {
		params.Set("employment", s.Employment)
	}
	if s.Schedule != "" {
		params.Set("schedule", s.Schedule)
	}
	return params
}
