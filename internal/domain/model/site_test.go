package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSite_SearchTerms(t *testing.T) {
	tests := []struct {
		name   string
		site   Site
		terms  []string
		source string
	}{
		{"keywords win", Site{Keywords: []string{"", "lithium"}, Subsegment: "Batteries", Segment: "Energy"}, []string{"lithium"}, "keywords"},
		{"subsegment next", Site{Keywords: []string{""}, Subsegment: "Batteries", Segment: "Energy"}, []string{"Batteries"}, "subsegment"},
		{"segment last", Site{Segment: "Energy"}, []string{"Energy"}, "segment"},
		{"nothing", Site{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, source := tt.site.SearchTerms()
			assert.Equal(t, tt.terms, terms)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestSearchPattern_Persistable(t *testing.T) {
	assert.True(t, SearchPattern{Method: MethodInput, Confidence: 3}.Persistable())
	assert.False(t, SearchPattern{Method: MethodFallback, Pattern: "/search"}.Persistable())
}
