package searchadvisors

import (
	"context"
	"fmt"
	"strings"

	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/search"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "search-advisors"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"properties": {
		"keywords":      {"type": "string", "maxLength": 200},
		"interests":     {"type": "array", "items": {"type": "string"}, "maxItems": 20},
		"department":    {"type": "string", "maxLength": 200},
		"onlyAvailable": {"type": "boolean"},
		"from":          {"type": "integer", "minimum": 0},
		"size":          {"type": "integer", "minimum": 0, "maximum": 100}
	}
}`)

// Searcher queries the advisor directory.
type Searcher interface {
	SearchAdvisors(ctx context.Context, q search.AdvisorQuery, defaultSize int) (*search.SearchResult, error)
}

type Handler struct {
	config    *Config
	searcher  Searcher
	store     *store.Store
	processor *camunda.JobProcessor
	logger    logger.Logger
}

// NewHandler builds the handler. searcher may be nil, in which case every query
// is answered from Postgres.
func NewHandler(config *Config, searcher Searcher, st *store.Store, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		searcher:  searcher,
		store:     st,
		processor: camunda.NewJobProcessor(TaskType, config.Timeout, obs, l).WithSchema(inputSchema),
		logger:    l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.processor.Process(client, job, func(ctx context.Context, vars []byte) (interface{}, error) {
		var input Input
		if err := camunda.DecodeVariables(vars, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.From < 0 || input.Size < 0 {
		return nil, errors.NewValidationError("from and size must not be negative")
	}

	q := search.AdvisorQuery{
		Keywords:      strings.TrimSpace(input.Keywords),
		Interests:     input.Interests,
		Department:    strings.TrimSpace(input.Department),
		OnlyAvailable: input.OnlyAvailable,
		From:          input.From,
		Size:          input.Size,
	}

	if h.searcher != nil {
		res, err := h.searcher.SearchAdvisors(ctx, q, h.config.DefaultSize)
		if err == nil {
			return &Output{Advisors: res.Hits, TotalHits: res.TotalHits, Source: SourceElasticsearch}, nil
		}
		if !h.config.Fallback {
			return nil, err
		}
		h.logger.Warn("directory search failed, falling back to postgres", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return h.searchPostgres(ctx, q)
}

func (h *Handler) searchPostgres(ctx context.Context, q search.AdvisorQuery) (*Output, error) {
	profiles, err := h.store.ListCompletedAdvisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing advisors: %w", err)
	}

	docs := make([]search.AdvisorDocument, 0, len(profiles))
	for _, p := range profiles {
		docs = append(docs, search.NewAdvisorDocument(p))
	}

	res := search.FilterDocuments(docs, q, h.config.DefaultSize)
	return &Output{Advisors: res.Hits, TotalHits: res.TotalHits, Source: SourcePostgres}, nil
}
