// Package search maintains the advisor directory in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/interests"
	"advisor-match-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "advisors"

const indexMapping = `{
	"mappings": {
		"properties": {
			"id":                {"type": "keyword"},
			"name":              {"type": "text"},
			"department":        {"type": "keyword"},
			"researchInterests": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"expertiseAreas":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"categories":        {"type": "keyword"},
			"bio":               {"type": "text"},
			"maxStudents":       {"type": "integer"},
			"availableSlots":    {"type": "integer"},
			"hasCapacity":       {"type": "boolean"},
			"utilizationRate":   {"type": "float"}
		}
	}
}`

// AdvisorDocument is the indexed form of an advisor profile.
type AdvisorDocument struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Department        string   `json:"department"`
	ResearchInterests []string `json:"researchInterests"`
	ExpertiseAreas    []string `json:"expertiseAreas"`
	Categories        []string `json:"categories"`
	Bio               string   `json:"bio,omitempty"`
	MaxStudents       int      `json:"maxStudents"`
	AvailableSlots    int      `json:"availableSlots"`
	HasCapacity       bool     `json:"hasCapacity"`
	UtilizationRate   float64  `json:"utilizationRate"`
}

// NewAdvisorDocument derives the document, including interest categories, from a profile.
func NewAdvisorDocument(p models.AdvisorProfile) AdvisorDocument {
	department := p.Department
	if department == "" {
		department = models.DefaultAcademicField
	}
	return AdvisorDocument{
		ID:                p.ID,
		Name:              p.Name,
		Department:        department,
		ResearchInterests: p.ResearchInterests,
		ExpertiseAreas:    p.ExpertiseAreas,
		Categories:        interests.MapInterestListToCategories(p.ResearchFocus()),
		Bio:               p.Bio,
		MaxStudents:       p.MaxStudents,
		AvailableSlots:    p.AvailableSlots,
		HasCapacity:       p.AvailableSlots > 0,
		UtilizationRate:   p.UtilizationRate(),
	}
}

// Directory reads and writes advisor documents in one index.
type Directory struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewDirectory(client *elasticsearch.Client, index string, log logger.Logger) *Directory {
	if index == "" {
		index = DefaultIndex
	}
	return &Directory{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"index": index}),
	}
}

func (d *Directory) Index() string {
	return d.index
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (d *Directory) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{d.index}}.Do(ctx, d.client)
	if err != nil {
		return errors.NewIndexFailedError(d.index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return errors.NewIndexFailedError(d.index, fmt.Errorf("exists check returned %s", res.Status()))
	}

	res, err = esapi.IndicesCreateRequest{
		Index: d.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, d.client)
	if err != nil {
		return errors.NewIndexFailedError(d.index, err)
	}
	defer res.Body.Close()

	// a concurrent replica may have created it first
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return errors.NewIndexFailedError(d.index, fmt.Errorf("create index: %s", res.String()))
	}

	d.logger.Info("advisor index created", nil)
	return nil
}

// IndexAdvisor upserts the advisor's document under its profile id.
func (d *Directory) IndexAdvisor(ctx context.Context, p models.AdvisorProfile) error {
	body, err := json.Marshal(NewAdvisorDocument(p))
	if err != nil {
		return errors.NewIndexFailedError(d.index, err)
	}

	res, err := esapi.IndexRequest{
		Index:      d.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, d.client)
	if err != nil {
		return errors.NewIndexFailedError(d.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewIndexFailedError(d.index, fmt.Errorf("index advisor %s: %s", p.ID, res.String()))
	}

	d.logger.Debug("advisor indexed", map[string]interface{}{"advisorId": p.ID})
	return nil
}
