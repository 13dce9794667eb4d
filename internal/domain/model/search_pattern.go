package model

// Method names the strategy that produced a SearchPattern.
type Method string

const (
	MethodInput    Method = "input"
	MethodIcon     Method = "icon"
	MethodUrl      Method = "url"
	MethodFallback Method = "fallback"
)

// Result types explain why a probe was judged successful.
const (
	ResultRedirect  = "redirect"
	ResultSearchUrl = "search-url"
	ResultSamePage  = "same-page"
	ResultAjax      = "ajax"
	ResultModal     = "modal"
	ResultNetwork   = "network"
	ResultUrl       = "url"
	ResultUnknown   = "unknown"
	ResultEmpty     = "empty"
	ResultError     = "error"
)

const MaxConfidence = 6

// SearchPattern is the reusable descriptor of how to trigger search on a site.
// Pattern is a DOM selector, a URL template with a "{}" keyword placeholder,
// or a raw href for fallback discoveries.
type SearchPattern struct {
	Method     Method `json:"method"`
	Pattern    string `json:"pattern"`
	Confidence int    `json:"confidence"`
	ResultType string `json:"result_type"`
}

// Persistable reports whether the pattern may be handed to a store.
func (sp SearchPattern) Persistable() bool {
	return sp.Confidence > 0
}

// DomainTask is one unit of work for the batch runner.
type DomainTask struct {
	DomainID string `json:"base_url_id"`
	BaseURL  string `json:"base_url"`
}
