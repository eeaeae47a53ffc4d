package studentdashboard

import (
	"context"
	"sort"

	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/interests"
	"advisor-match-workers/internal/matcher"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "student-dashboard"

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

	student, err := h.store.GetStudentByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	matches, err := h.store.ListMatchesByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	advisors, err := h.store.ListCompletedAdvisors(ctx)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Profile: Profile{
			StudentID:             student.ID,
			Name:                  student.Name,
			AcademicField:         student.AcademicField,
			ResearchInterests:     student.ResearchInterests,
			InterestCategories:    interests.MapInterestListToCategories(student.ResearchInterests),
			CareerGoals:           student.CareerGoals,
			PreferredAdvisorTypes: student.PreferredAdvisorTypes,
			YearLevel:             student.YearLevel,
			CompletedProfile:      student.CompletedProfile,
			ProfileCompletedAt:    student.UpdatedAt,
		},
		MatchStatus: MatchStatus{
			HasMatched:   student.HasMatched,
			MatchDate:    student.MatchDate,
			CanFindMatch: student.CompletedProfile && !student.HasMatched,
		},
		Matches:         matches,
		Recommendations: []models.Recommendation{},
		Statistics:      statistics(student, advisors, matches),
	}

	if student.HasMatched {
		out.MatchStatus.MatchedAdvisor = findAdvisor(advisors, student.MatchedAdvisorID)
	} else if student.CompletedProfile {
		out.Recommendations = recommend(student.ToMatchStudent(), advisors, h.config.MaxRecommendations)
	}

	h.logger.Debug("student dashboard built", map[string]interface{}{
		"studentId":  student.ID,
		"hasMatched": student.HasMatched,
	})
	return out, nil
}

func statistics(student *models.StudentProfile, advisors []models.AdvisorProfile, matches []models.MatchRecord) Statistics {
	s := Statistics{
		TotalAdvisors: len(advisors),
		TotalMatches:  len(matches),
		YourInterests: len(student.ResearchInterests),
		YourGoals:     len(student.CareerGoals),
	}
	ms := student.ToMatchStudent()
	for _, p := range advisors {
		if p.AvailableSlots <= 0 {
			continue
		}
		s.AvailableAdvisors++
		if len(matcher.Score(ms, p.ToMatchAdvisor()).MatchedInterests) > 0 {
			s.CompatibleAdvisors++
		}
	}
	for _, m := range matches {
		if m.Status == models.MatchPending {
			s.PendingMatches++
		}
	}
	return s
}

// findAdvisor returns nil when the matched advisor is not a completed profile.
func findAdvisor(advisors []models.AdvisorProfile, id string) *AdvisorSummary {
	for _, p := range advisors {
		if p.ID == id {
			return &AdvisorSummary{
				ID:            p.ID,
				Name:          p.Name,
				Email:         p.Email,
				Department:    p.Department,
				ResearchAreas: p.ResearchFocus(),
			}
		}
	}
	return nil
}

// recommend scores every advisor with free capacity and returns the best limit,
// highest percentage first. Ties keep advisor order.
func recommend(s models.Student, advisors []models.AdvisorProfile, limit int) []models.Recommendation {
	scored := make([]models.AdvisorMatch, 0, len(advisors))
	for _, p := range advisors {
		a := p.ToMatchAdvisor()
		if !a.HasCapacity() {
			continue
		}
		scored = append(scored, matcher.Score(s, a))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchPercentage > scored[j].MatchPercentage
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	recs := make([]models.Recommendation, 0, len(scored))
	for _, m := range scored {
		recs = append(recs, m.Recommendation())
	}
	return recs
}
