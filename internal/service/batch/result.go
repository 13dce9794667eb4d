package batch

import (
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
)

type Status string

const (
	StatusSaved        Status = "saved"
	StatusNotFound     Status = "not-found"
	StatusFallbackOnly Status = "fallback-only"
	StatusUnreachable  Status = "unreachable"
	StatusTimeout      Status = "timeout"
	StatusFailed       Status = "failed"
	StatusSaveFailed   Status = "save-failed"

	// StatusFound is an accepted pattern from a run that does not persist.
	StatusFound Status = "found"
)

// DomainResult is the outcome of one domain's pipeline.
type DomainResult struct {
	Task    model.DomainTask    `json:"task"`
	Status  Status              `json:"status"`
	Pattern model.SearchPattern `json:"pattern"`
	Err     error               `json:"-"`
	Elapsed time.Duration       `json:"elapsed"`
}

type Summary struct {
	Domains int            `json:"domains"`
	Counts  map[Status]int `json:"counts"`
	Elapsed time.Duration  `json:"elapsed"`
}

func NewSummary() Summary {
	return Summary{Counts: make(map[Status]int)}
}

func (s *Summary) Add(res DomainResult) {
	s.Domains++
	s.Counts[res.Status]++
}

func (s *Summary) Merge(other Summary) {
	s.Domains += other.Domains
	for k, v := range other.Counts {
		s.Counts[k] += v
	}
}
