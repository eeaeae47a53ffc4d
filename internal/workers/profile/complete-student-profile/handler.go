package completestudentprofile

import (
	"context"
	"fmt"
	"strings"

	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/interests"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "complete-student-profile"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["userId", "researchInterests"],
	"properties": {
		"userId":                {"type": "string", "minLength": 1},
		"academicField":         {"type": "string", "maxLength": 200},
		"researchInterests":     {"type": "array", "items": {"type": "string"}},
		"careerGoals":           {"type": "array", "items": {"type": "string"}},
		"preferredAdvisorTypes": {"type": "array", "items": {"type": "string"}},
		"yearLevel":             {"type": "string", "maxLength": 50}
	}
}`)

type Handler struct {
	config    *Config
	store     *store.Store
	processor *camunda.JobProcessor
	logger    logger.Logger
}

func NewHandler(config *Config, st *store.Store, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
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
	if input.UserID == "" {
		return nil, errors.NewValidationError("userId is required")
	}

	researchInterests := cleanList(input.ResearchInterests)
	if len(researchInterests) > h.config.MaxInterests {
		return nil, errors.NewValidationError(fmt.Sprintf("at most %d research interests are allowed", h.config.MaxInterests))
	}

	p, err := h.store.CompleteStudentProfile(ctx, input.UserID, store.StudentProfileUpdate{
		AcademicField:         strings.TrimSpace(input.AcademicField),
		ResearchInterests:     researchInterests,
		CareerGoals:           cleanList(input.CareerGoals),
		PreferredAdvisorTypes: cleanList(input.PreferredAdvisorTypes),
		YearLevel:             strings.TrimSpace(input.YearLevel),
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("student profile completed", map[string]interface{}{
		"studentId": p.ID,
		"interests": len(p.ResearchInterests),
	})

	return &Output{
		StudentID:          p.ID,
		AcademicField:      p.AcademicField,
		ResearchInterests:  p.ResearchInterests,
		InterestCategories: interests.MapInterestListToCategories(p.ResearchInterests),
		CompletedProfile:   p.CompletedProfile,
		ReadyForMatching:   p.CompletedProfile && !p.HasMatched,
	}, nil
}

// cleanList trims entries and drops blanks. Duplicates are kept: each one counts
// separately when scoring.
func cleanList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
