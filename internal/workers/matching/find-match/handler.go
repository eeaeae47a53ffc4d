package findmatch

import (
	"context"
	"fmt"

	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/metrics"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/matcher"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "find-match"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"properties": {
		"studentId": {"type": "string"},
		"userId":    {"type": "string"},
		"dryRun":    {"type": "boolean"}
	},
	"anyOf": [
		{"required": ["studentId"]},
		{"required": ["userId"]}
	]
}`)

const (
	reasonNoAdvisors   = "No advisors are currently registered in the system."
	reasonNoInterests  = "No advisors found matching your research interests."
	reasonAllFull      = "All advisors with matching research interests are currently at full capacity."
	reasonBelowMinimum = "No available advisor reached the match threshold for your profile."
)

type Indexer interface {
	IndexAdvisor(ctx context.Context, p models.AdvisorProfile) error
}

type Handler struct {
	config    *Config
	store     *store.Store
	locker    *store.Locker
	indexer   Indexer
	matcher   *matcher.Matcher
	obs       *observability.Observability
	processor *camunda.JobProcessor
	logger    logger.Logger
}

func NewHandler(config *Config, st *store.Store, locker *store.Locker, indexer Indexer, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     st,
		locker:    locker,
		indexer:   indexer,
		matcher:   matcher.New(matcher.WithLogger(l)),
		obs:       obs,
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
	student, err := h.loadStudent(ctx, input)
	if err != nil {
		return nil, err
	}
	if !student.CompletedProfile {
		return nil, errors.NewProfileIncompleteError("student", student.ID)
	}
	if student.HasMatched {
		return nil, errors.NewAlreadyMatchedError(student.ID).WithMetadata("advisorId", student.MatchedAdvisorID)
	}

	if h.locker != nil && !input.DryRun {
		release, err := h.locker.Acquire(ctx, "student:"+student.ID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				h.logger.Warn("failed to release matching lock", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	profiles, err := h.store.ListCompletedAdvisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading advisors: %w", err)
	}
	advisors := make([]models.Advisor, 0, len(profiles))
	for _, p := range profiles {
		advisors = append(advisors, p.ToMatchAdvisor())
	}

	s := student.ToMatchStudent()
	result := h.matcher.Match([]models.Student{s}, advisors)[0]
	h.obs.RecordMatches(ctx, TaskType, map[string]int{result.Status: 1})

	out := &Output{
		StudentID:       student.ID,
		Status:          result.Status,
		AssignedAdvisor: result.AssignedAdvisor,
		Recommendations: result.Recommendations,
	}
	if out.Recommendations == nil {
		out.Recommendations = []models.Recommendation{}
	}

	if !result.IsStrongMatch() {
		out.Reason, out.Details = explain(s, advisors)
		h.logger.Info("no suitable advisor", map[string]interface{}{
			"studentId":       student.ID,
			"recommendations": len(out.Recommendations),
		})
		return out, nil
	}
	if input.DryRun {
		return out, nil
	}

	rec, err := h.store.CommitAssignment(ctx, student.ID, *result.AssignedAdvisor)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeCapacityConflict) {
			metrics.AssignmentCommits.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}
	metrics.AssignmentCommits.WithLabelValues("committed").Inc()
	out.MatchID = rec.ID
	out.Committed = true

	h.reindex(ctx, rec.AdvisorID)
	h.logger.Info("student matched", map[string]interface{}{
		"studentId":  student.ID,
		"advisorId":  rec.AdvisorID,
		"matchId":    rec.ID,
		"percentage": rec.Score.String(),
	})
	return out, nil
}

func (h *Handler) loadStudent(ctx context.Context, input *Input) (*models.StudentProfile, error) {
	switch {
	case input.StudentID != "":
		return h.store.GetStudent(ctx, input.StudentID)
	case input.UserID != "":
		return h.store.GetStudentByUserID(ctx, input.UserID)
	default:
		return nil, errors.NewValidationError("studentId or userId is required")
	}
}

func (h *Handler) reindex(ctx context.Context, advisorID string) {
	if h.indexer == nil {
		return
	}
	p, err := h.store.GetAdvisor(ctx, advisorID)
	if err == nil {
		err = h.indexer.IndexAdvisor(ctx, *p)
	}
	if err != nil {
		h.logger.Warn("failed to reindex advisor", map[string]interface{}{
			"advisorId": advisorID,
			"error":     err.Error(),
		})
	}
}

// explain summarises why the pool produced no Strong Match for s.
func explain(s models.Student, advisors []models.Advisor) (string, *PoolDetails) {
	d := &PoolDetails{
		TotalAdvisors: len(advisors),
		YourInterests: s.ResearchInterests,
	}
	for _, a := range advisors {
		if len(matcher.Score(s, a).MatchedInterests) == 0 {
			continue
		}
		d.AdvisorsWithMatchingInterests++
		if a.HasCapacity() {
			d.AvailableWithMatchingInterests++
		}
	}

	switch {
	case d.TotalAdvisors == 0:
		return reasonNoAdvisors, d
	case d.AdvisorsWithMatchingInterests == 0:
		return reasonNoInterests, d
	case d.AvailableWithMatchingInterests == 0:
		return reasonAllFull, d
	default:
		return reasonBelowMinimum, d
	}
}
