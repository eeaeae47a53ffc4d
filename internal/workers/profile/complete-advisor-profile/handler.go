package completeadvisorprofile

import (
	"context"
	"fmt"
	"strings"

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

const TaskType = "complete-advisor-profile"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["userId", "researchInterests"],
	"properties": {
		"userId":            {"type": "string", "minLength": 1},
		"email":             {"type": "string", "maxLength": 255},
		"staffNumber":       {"type": "string", "maxLength": 50},
		"department":        {"type": "string", "maxLength": 200},
		"researchInterests": {"type": "array", "items": {"type": "string"}},
		"expertiseAreas":    {"type": "array", "items": {"type": "string"}},
		"maxStudents":       {"type": "integer", "minimum": 0},
		"bio":               {"type": "string", "maxLength": 2000}
	}
}`)

// Indexer publishes advisor profiles to the search directory.
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

// NewHandler builds the handler. indexer may be nil when the directory is disabled.
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
	if input.UserID == "" {
		return nil, errors.NewValidationError("userId is required")
	}
	if input.MaxStudents < 0 || input.MaxStudents > h.config.MaxCapacity {
		return nil, errors.NewValidationError(
			fmt.Sprintf("maxStudents must be between 0 and %d", h.config.MaxCapacity))
	}

	p, err := h.store.CompleteAdvisorProfile(ctx, input.UserID, store.AdvisorProfileUpdate{
		Email:             strings.ToLower(strings.TrimSpace(input.Email)),
		StaffNumber:       strings.TrimSpace(input.StaffNumber),
		Department:        strings.TrimSpace(input.Department),
		ResearchInterests: trimAll(input.ResearchInterests),
		ExpertiseAreas:    trimAll(input.ExpertiseAreas),
		MaxStudents:       input.MaxStudents,
		Bio:               strings.TrimSpace(input.Bio),
	})
	if err != nil {
		return nil, err
	}

	indexed, err := h.index(ctx, *p)
	if err != nil {
		return nil, err
	}

	h.logger.Info("advisor profile completed", map[string]interface{}{
		"advisorId":   p.ID,
		"maxStudents": p.MaxStudents,
		"indexed":     indexed,
	})

	return &Output{
		AdvisorID:        p.ID,
		Department:       p.Department,
		ResearchFocus:    p.ResearchFocus(),
		CompletedProfile: p.CompletedProfile,
		MaxStudents:      p.MaxStudents,
		AvailableSlots:   p.AvailableSlots,
		Indexed:          indexed,
	}, nil
}

// index pushes the profile to the directory. Failures only fail the job when
// RequireIndexed is set; the directory is rebuilt from the database otherwise.
func (h *Handler) index(ctx context.Context, p models.AdvisorProfile) (bool, error) {
	if h.indexer == nil {
		return false, nil
	}
	if err := h.indexer.IndexAdvisor(ctx, p); err != nil {
		if h.config.RequireIndexed {
			return false, err
		}
		h.logger.Warn("failed to index advisor", map[string]interface{}{
			"advisorId": p.ID,
			"error":     err.Error(),
		})
		return false, nil
	}
	return true, nil
}

func trimAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
