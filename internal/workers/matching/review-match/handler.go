package reviewmatch

import (
	"context"
	"strings"
	"time"

	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "review-match"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["matchId", "advisorId", "decision"],
	"properties": {
		"matchId":   {"type": "string", "minLength": 1},
		"advisorId": {"type": "string", "minLength": 1},
		"decision":  {"type": "string", "enum": ["accept", "reject", "ACCEPT", "REJECT"]}
	}
}`)

type Indexer interface {
	IndexAdvisor(ctx context.Context, p models.AdvisorProfile) error
}

type Handler struct {
	config    *Config
	store     *store.Store
	indexer   Indexer
	processor *camunda.JobProcessor
	logger    logger.Logger
}

func NewHandler(config *Config, st *store.Store, indexer Indexer, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     st,
		indexer:   indexer,
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
	if input.MatchID == "" || input.AdvisorID == "" {
		return nil, errors.NewValidationError("matchId and advisorId are required")
	}

	var accept bool
	switch strings.ToLower(input.Decision) {
	case DecisionAccept:
		accept = true
	case DecisionReject:
	default:
		return nil, errors.NewValidationError("decision must be accept or reject")
	}

	rec, err := h.store.ReviewMatch(ctx, input.MatchID, input.AdvisorID, accept)
	if err != nil {
		return nil, err
	}

	out := &Output{
		MatchID:      rec.ID,
		StudentID:    rec.StudentID,
		AdvisorID:    rec.AdvisorID,
		Status:       string(rec.Status),
		SlotReleased: !accept,
	}
	if rec.ReviewedAt != nil {
		out.ReviewedAt = rec.ReviewedAt.UTC().Format(time.RFC3339)
	}

	if !accept {
		if p, err := h.store.GetAdvisor(ctx, rec.AdvisorID); err != nil {
			h.logger.Warn("failed to reload advisor", map[string]interface{}{
				"advisorId": rec.AdvisorID,
				"error":     err.Error(),
			})
		} else {
			out.AvailableSlots = &p.AvailableSlots
			h.reindex(ctx, *p)
		}
	}

	h.logger.Info("match reviewed", map[string]interface{}{
		"matchId":   rec.ID,
		"advisorId": rec.AdvisorID,
		"status":    rec.Status,
	})
	return out, nil
}

func (h *Handler) reindex(ctx context.Context, p models.AdvisorProfile) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.IndexAdvisor(ctx, p); err != nil {
		h.logger.Warn("failed to reindex advisor", map[string]interface{}{
			"advisorId": p.ID,
			"error":     err.Error(),
		})
	}
}
