package searchadvisors

import "advisor-match-workers/internal/search"

type Input struct {
	Keywords      string   `json:"keywords,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	Department    string   `json:"department,omitempty"`
	OnlyAvailable bool     `json:"onlyAvailable,omitempty"`
	From          int      `json:"from,omitempty"`
	Size          int      `json:"size,omitempty"`
}

type Output struct {
	Advisors  []search.AdvisorHit `json:"advisors"`
	TotalHits int64               `json:"totalHits"`
	Source    string              `json:"source"`
}

const (
	SourceElasticsearch = "elasticsearch"
	SourcePostgres      = "postgres"
)
