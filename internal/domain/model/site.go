package model

// Site is a base URL row together with the metadata used to pick search terms.
type Site struct {
	ID              string   `json:"base_url_id"`
	BaseURL         string   `json:"base_url"`
	SearchProcessed bool     `json:"search_processed"`
	Subsegment      string   `json:"subsegment_name,omitempty"`
	Segment         string   `json:"segment_name,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

// SearchTerms returns the terms a scrape should search for and where they came from.
// Keywords win over the subsegment name, which wins over the segment name.
func (s *Site) SearchTerms() ([]string, string) {
	keywords := make([]string, 0, len(s.Keywords))
	for _, k := range s.Keywords {
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	switch {
	case len(keywords) > 0:
		return keywords, "keywords"
	case s.Subsegment != "":
		return []string{s.Subsegment}, "subsegment"
	case s.Segment != "":
		return []string{s.Segment}, "segment"
	}
	return nil, ""
}
