package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/interests"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const maxPageSize = 100

// AdvisorQuery filters the directory. Zero values disable the corresponding filter.
type AdvisorQuery struct {
	Keywords      string
	Interests     []string
	Department    string
	OnlyAvailable bool
	From          int
	Size          int
}

type AdvisorHit struct {
	AdvisorDocument
	Score float64 `json:"score"`
}

type SearchResult struct {
	Hits      []AdvisorHit `json:"hits"`
	TotalHits int64        `json:"totalHits"`
	MaxScore  float64      `json:"maxScore"`
	Took      int64        `json:"took"`
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			Score  *float64        `json:"_score"`
			Source AdvisorDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BuildAdvisorQuery renders q as an Elasticsearch bool query. Interests match both
// the free-text fields and the derived categories, so "deep learning" finds an advisor
// listed under "machine learning".
func BuildAdvisorQuery(q AdvisorQuery) map[string]interface{} {
	must := []interface{}{}
	should := []interface{}{}
	filter := []interface{}{}

	if q.Keywords != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Keywords,
				"fields": []string{"name^3", "researchInterests^2", "expertiseAreas^2", "bio"},
				"type":   "best_fields",
			},
		})
	}

	if len(q.Interests) > 0 {
		for _, interest := range q.Interests {
			should = append(should, map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  interest,
					"fields": []string{"researchInterests", "expertiseAreas"},
				},
			})
		}
		if categories := interests.MapInterestListToCategories(q.Interests); len(categories) > 0 {
			should = append(should, map[string]interface{}{
				"terms": map[string]interface{}{"categories": categories},
			})
		}
	}

	if q.Department != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"department": q.Department},
		})
	}
	if q.OnlyAvailable {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"hasCapacity": true},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(must) == 0 && len(should) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(should) > 0 {
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"availableSlots": "desc"},
			map[string]interface{}{"id": "asc"},
		},
	}
}

func normalizePage(from, size, defaultSize int) (int, int) {
	if from < 0 {
		from = 0
	}
	if defaultSize <= 0 {
		defaultSize = 20
	}
	if size < 1 {
		size = defaultSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return from, size
}

// SearchAdvisors runs q against the directory. defaultSize applies when q.Size is unset.
func (d *Directory) SearchAdvisors(ctx context.Context, q AdvisorQuery, defaultSize int) (*SearchResult, error) {
	from, size := normalizePage(q.From, q.Size, defaultSize)

	body, err := json.Marshal(BuildAdvisorQuery(q))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(d.index, err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{d.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}.Do(ctx, d.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(d.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(d.index, fmt.Errorf("search: %s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewSearchQueryFailedError(d.index, fmt.Errorf("decode response: %w", err))
	}

	result := &SearchResult{
		Hits:      make([]AdvisorHit, 0, len(r.Hits.Hits)),
		TotalHits: r.Hits.Total.Value,
		Took:      r.Took,
	}
	if r.Hits.MaxScore != nil {
		result.MaxScore = *r.Hits.MaxScore
	}
	for _, h := range r.Hits.Hits {
		hit := AdvisorHit{AdvisorDocument: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}
