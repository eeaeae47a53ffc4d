package runbatchmatch

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

const TaskType = "run-batch-match"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"properties": {
		"limit":  {"type": "integer", "minimum": 0},
		"dryRun": {"type": "boolean"},
		"students": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id":                {"type": "string", "minLength": 1},
					"name":              {"type": "string"},
					"academicField":     {"type": "string"},
					"researchInterests": {"type": ["array", "null"], "items": {"type": "string"}}
				}
			}
		},
		"advisors": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id":             {"type": "string", "minLength": 1},
					"name":           {"type": "string"},
					"specialization": {"type": "string"},
					"researchFocus":  {"type": ["array", "null"], "items": {"type": "string"}},
					"maxCapacity":    {"type": "integer", "minimum": 0},
					"currentLoad":    {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`)

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

// NewHandler builds the handler. indexer may be nil.
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
	if input.Limit < 0 {
		return nil, errors.NewValidationError("limit must not be negative")
	}

	var (
		out *Output
		err error
	)
	if len(input.Students) > 0 || len(input.Advisors) > 0 {
		out = h.runInMemory(input)
	} else {
		out, err = h.runPersisted(ctx, input)
		if err != nil {
			return nil, err
		}
	}

	h.recordOutcome(ctx, out)
	h.logger.Info("batch match finished", map[string]interface{}{
		"source":    out.Source,
		"students":  out.TotalStudents,
		"matched":   out.Matched,
		"committed": out.Committed,
		"conflicts": len(out.Conflicts),
		"dryRun":    out.DryRun,
	})
	return out, nil
}

// runInMemory matches the records carried by the job. The caller's advisors are
// copied so their loads are reported as received.
func (h *Handler) runInMemory(input *Input) *Output {
	advisors := make([]models.Advisor, len(input.Advisors))
	copy(advisors, input.Advisors)

	out := newOutput(h.matcher.Match(input.Students, advisors), SourceJob)
	out.DryRun = true
	return out
}

func (h *Handler) runPersisted(ctx context.Context, input *Input) (*Output, error) {
	if h.locker != nil {
		release, err := h.locker.Acquire(ctx, h.config.LockScope)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				h.logger.Warn("failed to release matching lock", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	limit := input.Limit
	if limit == 0 || limit > h.config.MaxBatchSize {
		limit = h.config.MaxBatchSize
	}

	profiles, err := h.store.ListUnmatchedStudents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading unmatched students: %w", err)
	}
	advisorProfiles, err := h.store.ListCompletedAdvisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading advisors: %w", err)
	}

	students := make([]models.Student, 0, len(profiles))
	for _, p := range profiles {
		students = append(students, p.ToMatchStudent())
	}
	advisors := make([]models.Advisor, 0, len(advisorProfiles))
	for _, p := range advisorProfiles {
		advisors = append(advisors, p.ToMatchAdvisor())
	}

	out := newOutput(h.matcher.Match(students, advisors), SourcePostgres)
	out.DryRun = input.DryRun
	if input.DryRun {
		return out, nil
	}

	touched, err := h.commit(ctx, out)
	if err != nil {
		return nil, err
	}
	h.reindex(ctx, touched)
	return out, nil
}

// commit persists every Strong Match in result order. Capacity and already-matched
// refusals are collected as conflicts; any other failure stops the run.
func (h *Handler) commit(ctx context.Context, out *Output) ([]string, error) {
	seen := map[string]bool{}
	var touched []string

	for _, r := range out.Results {
		if !r.IsStrongMatch() {
			continue
		}

		rec, err := h.store.CommitAssignment(ctx, r.StudentID, *r.AssignedAdvisor)
		switch {
		case err == nil:
			out.Committed++
			out.MatchIDs = append(out.MatchIDs, rec.ID)
			metrics.AssignmentCommits.WithLabelValues("committed").Inc()
			if !seen[rec.AdvisorID] {
				seen[rec.AdvisorID] = true
				touched = append(touched, rec.AdvisorID)
			}
		case errors.HasCode(err, errors.ErrCodeCapacityConflict), errors.HasCode(err, errors.ErrCodeAlreadyMatched):
			stdErr, _ := errors.AsStandardError(err)
			out.Conflicts = append(out.Conflicts, Conflict{
				StudentID: r.StudentID,
				AdvisorID: r.AssignedAdvisor.AdvisorID,
				Code:      string(stdErr.Code),
			})
			metrics.AssignmentCommits.WithLabelValues("conflict").Inc()
			h.logger.Warn("assignment not committed", map[string]interface{}{
				"studentId": r.StudentID,
				"advisorId": r.AssignedAdvisor.AdvisorID,
				"code":      stdErr.Code,
			})
		default:
			return nil, fmt.Errorf("committing match for student %s: %w", r.StudentID, err)
		}
	}
	return touched, nil
}

func (h *Handler) reindex(ctx context.Context, advisorIDs []string) {
	if h.indexer == nil || len(advisorIDs) == 0 {
		return
	}
	profiles, err := h.store.ListAdvisorsByIDs(ctx, advisorIDs)
	if err != nil {
		h.logger.Warn("failed to load advisors for reindex", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, p := range profiles {
		if err := h.indexer.IndexAdvisor(ctx, p); err != nil {
			h.logger.Warn("failed to reindex advisor", map[string]interface{}{
				"advisorId": p.ID,
				"error":     err.Error(),
			})
		}
	}
}

func (h *Handler) recordOutcome(ctx context.Context, out *Output) {
	h.obs.RecordMatches(ctx, TaskType, map[string]int{
		models.StatusStrongMatch: out.Matched,
		models.StatusNoMatch:     out.Unmatched,
	})
}

func newOutput(results []models.MatchResult, source string) *Output {
	out := &Output{
		Results:       results,
		TotalStudents: len(results),
		Conflicts:     []Conflict{},
		MatchIDs:      []string{},
		Source:        source,
	}
	for _, r := range results {
		if r.IsStrongMatch() {
			out.Matched++
		} else {
			out.Unmatched++
		}
	}
	return out
}
