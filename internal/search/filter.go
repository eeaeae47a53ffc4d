package search

import (
	"strings"

	"advisor-match-workers/internal/interests"
)

// Matches applies q to one document in memory. Keywords must appear in the name,
// bio or any interest; at least one interest must match when interests are given.
// It mirrors BuildAdvisorQuery without relevance scoring.
func (q AdvisorQuery) Matches(doc AdvisorDocument) bool {
	if q.OnlyAvailable && !doc.HasCapacity {
		return false
	}
	if q.Department != "" && !strings.EqualFold(q.Department, doc.Department) {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(q.Keywords)); kw != "" {
		if !containsFold(kw, doc.Name, doc.Bio) &&
			!containsFold(kw, doc.ResearchInterests...) &&
			!containsFold(kw, doc.ExpertiseAreas...) {
			return false
		}
	}
	if len(q.Interests) == 0 {
		return true
	}

	wanted := make(map[string]struct{}, 2*len(q.Interests))
	for _, i := range q.Interests {
		wanted[strings.ToLower(strings.TrimSpace(i))] = struct{}{}
		wanted[strings.ToLower(interests.MapToCategory(i))] = struct{}{}
	}
	for _, list := range [][]string{doc.ResearchInterests, doc.ExpertiseAreas, doc.Categories} {
		for _, v := range list {
			if _, ok := wanted[strings.ToLower(v)]; ok {
				return true
			}
		}
	}
	return false
}

// FilterDocuments evaluates q over docs in order and pages the matches the way
// SearchAdvisors does. Every hit scores 0.
func FilterDocuments(docs []AdvisorDocument, q AdvisorQuery, defaultSize int) *SearchResult {
	from, size := normalizePage(q.From, q.Size, defaultSize)

	matched := make([]AdvisorDocument, 0, len(docs))
	for _, d := range docs {
		if q.Matches(d) {
			matched = append(matched, d)
		}
	}

	result := &SearchResult{
		Hits:      []AdvisorHit{},
		TotalHits: int64(len(matched)),
	}
	if from >= len(matched) {
		return result
	}
	end := from + size
	if end > len(matched) {
		end = len(matched)
	}
	for _, d := range matched[from:end] {
		result.Hits = append(result.Hits, AdvisorHit{AdvisorDocument: d})
	}
	return result
}

func containsFold(needle string, haystack ...string) bool {
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
