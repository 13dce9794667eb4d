package discovery

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

//go:embed selectors.json
var selectorsJSON []byte

// Selectors holds the ordered candidate lists. Order is priority.
type Selectors struct {
	Input []string `json:"input"`
	Icon  []string `json:"icon"`
	Url   []string `json:"url"`
}

// ParseSelectors decodes a selector set and drops repeated entries, keeping the first.
func ParseSelectors(data []byte) (Selectors, error) {
	var s Selectors
	if err := json.Unmarshal(data, &s); err != nil {
		return Selectors{}, fmt.Errorf("failed to parse selectors: %w", err)
	}
	s.Input = lo.Uniq(lo.Compact(s.Input))
	s.Icon = lo.Uniq(lo.Compact(s.Icon))
	s.Url = lo.Uniq(lo.Compact(s.Url))
	return s, nil
}

var defaultSelectors = sync.OnceValue(func() Selectors {
	s, err := ParseSelectors(selectorsJSON)
	if err != nil {
		panic(err)
	}
	return s
})

// DefaultSelectors returns the built-in selector set, loaded once.
func DefaultSelectors() Selectors {
	return defaultSelectors()
}
