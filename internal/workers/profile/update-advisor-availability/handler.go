package updateadvisoravailability

import (
	"context"
	"fmt"
	"math"

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

const TaskType = "update-advisor-availability"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["advisorId"],
	"properties": {
		"advisorId":      {"type": "string", "minLength": 1},
		"maxStudents":    {"type": "integer", "minimum": 0},
		"availableSlots": {"type": "integer", "minimum": 0}
	},
	"anyOf": [
		{"required": ["maxStudents"]},
		{"required": ["availableSlots"]}
	]
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
	if err := h.validate(input); err != nil {
		return nil, err
	}

	p, err := h.store.UpdateAvailability(ctx, input.AdvisorID, store.Availability{
		MaxStudents:    input.MaxStudents,
		AvailableSlots: input.AvailableSlots,
	})
	if err != nil {
		return nil, err
	}

	indexed := false
	if h.indexer != nil {
		if err := h.indexer.IndexAdvisor(ctx, *p); err != nil {
			h.logger.Warn("failed to reindex advisor", map[string]interface{}{
				"advisorId": p.ID,
				"error":     err.Error(),
			})
		} else {
			indexed = true
		}
	}

	h.logger.Info("advisor availability updated", map[string]interface{}{
		"advisorId":      p.ID,
		"maxStudents":    p.MaxStudents,
		"availableSlots": p.AvailableSlots,
	})

	return &Output{
		AdvisorID:       p.ID,
		MaxStudents:     p.MaxStudents,
		AvailableSlots:  p.AvailableSlots,
		CurrentLoad:     p.CurrentLoad(),
		UtilizationRate: math.Round(p.UtilizationRate()),
		Indexed:         indexed,
	}, nil
}

func (h *Handler) validate(input *Input) error {
	if input.AdvisorID == "" {
		return errors.NewValidationError("advisorId is required")
	}
	if input.MaxStudents == nil && input.AvailableSlots == nil {
		return errors.NewValidationError("maxStudents or availableSlots is required")
	}
	if input.MaxStudents != nil && (*input.MaxStudents < 0 || *input.MaxStudents > h.config.MaxCapacity) {
		return errors.NewValidationError(fmt.Sprintf("maxStudents must be between 0 and %d", h.config.MaxCapacity))
	}
	if input.AvailableSlots != nil && *input.AvailableSlots < 0 {
		return errors.NewValidationError("availableSlots must not be negative")
	}
	return nil
}
