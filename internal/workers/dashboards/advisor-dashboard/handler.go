package advisordashboard

import (
	"context"
	"math"

	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/interests"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "advisor-dashboard"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1}
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

	advisor, err := h.store.GetAdvisorByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	students, err := h.store.ListStudentsByAdvisor(ctx, advisor.ID)
	if err != nil {
		return nil, err
	}
	pending, err := h.store.ListMatchesByAdvisor(ctx, advisor.ID, models.MatchPending)
	if err != nil {
		return nil, err
	}
	counts, err := h.store.CountMatchesByStatus(ctx, advisor.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]StudentSummary, 0, len(students))
	for _, s := range students {
		summaries = append(summaries, StudentSummary{
			ID:                s.ID,
			Name:              s.Name,
			AcademicField:     s.AcademicField,
			ResearchInterests: s.ResearchInterests,
			CareerGoals:       s.CareerGoals,
			YearLevel:         s.YearLevel,
			MatchDate:         s.MatchDate,
		})
	}

	return &Output{
		Profile: Profile{
			AdvisorID:         advisor.ID,
			Name:              advisor.Name,
			Email:             advisor.Email,
			Department:        advisor.Department,
			ResearchInterests: advisor.ResearchInterests,
			ExpertiseAreas:    advisor.ExpertiseAreas,
			Categories:        interests.MapInterestListToCategories(advisor.ResearchFocus()),
			Bio:               advisor.Bio,
			AvailableSlots:    advisor.AvailableSlots,
			MaxStudents:       advisor.MaxStudents,
			CompletedProfile:  advisor.CompletedProfile,
		},
		Students:       summaries,
		PendingMatches: pending,
		Statistics: Statistics{
			TotalStudents:   len(students),
			AvailableSlots:  advisor.AvailableSlots,
			MaxStudents:     advisor.MaxStudents,
			UtilizationRate: utilization(len(students), advisor.MaxStudents),
			PendingMatches:  counts[models.MatchPending],
			AcceptedMatches: counts[models.MatchAccepted],
			RejectedMatches: counts[models.MatchRejected],
		},
	}, nil
}

// utilization is the whole percentage of capacity held by assigned students.
func utilization(assigned, maxStudents int) int {
	if maxStudents <= 0 {
		return 0
	}
	return int(math.Round(float64(assigned) / float64(maxStudents) * 100))
}
