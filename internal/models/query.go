package models

import "fmt"

// SearchQuery is a search request against the document index.
type SearchQuery struct {
	Query          string `json:"query"`
	Limit          int    `json:"limit,omitempty"`
	KeywordEnabled bool   `json:"keyword_enabled,omitempty"`
}

// Validate checks the query and normalizes the limit.
// A limit of zero gets the default; negative limits are kept as-is
// (the index treats limit <= 0 as "return nothing").
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*ScoredDocument `json:"results"`
	Total     int               `json:"total"`
	QueryTime int64             `json:"query_time_ms"`
	Query     string            `json:"query"`
}
