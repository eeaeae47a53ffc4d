// Package matcher pairs students with advisors by research interest and academic field.
package matcher

import (
	"fmt"
	"sort"

	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/models"
)

// Matcher runs batch matching. It holds no state between calls; the advisor slice
// passed to Match is the only thing it mutates.
type Matcher struct {
	logger   logger.Logger
	observer Observer
}

type Option func(*Matcher)

func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(m *Matcher) {
		if o != nil {
			m.observer = o
		}
	}
}

func New(opts ...Option) *Matcher {
	m := &Matcher{
		logger:   logger.NewNoOpLogger(),
		observer: prometheusObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchStudentsToAdvisors matches with a default Matcher.
func MatchStudentsToAdvisors(students []models.Student, advisors []models.Advisor) []models.MatchResult {
	return New().Match(students, advisors)
}

// Match returns one result per student, in student order. Students are processed
// sequentially and each Strong Match increments CurrentLoad of the chosen element of
// advisors, so later students see the reduced capacity. Callers that need the input
// untouched must pass a copy.
func (m *Matcher) Match(students []models.Student, advisors []models.Advisor) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(students))
	for _, student := range students {
		result := m.matchStudent(student, advisors)
		m.observer.ResultProduced(result)
		results = append(results, result)
	}

	m.reportFullAdvisors(advisors)
	return results
}

type candidate struct {
	index int
	match models.AdvisorMatch
}

func (m *Matcher) matchStudent(student models.Student, advisors []models.Advisor) models.MatchResult {
	candidates := make([]candidate, 0, len(advisors))
	for i := range advisors {
		if !advisors[i].HasCapacity() {
			continue
		}
		scored := Score(student, advisors[i])
		m.observer.CandidateScored(scored.MatchPercentage)
		candidates = append(candidates, candidate{index: i, match: scored})
	}

	if len(candidates) == 0 {
		m.observer.EmptyPool(student)
		m.logger.Warn("no available advisors for student", map[string]interface{}{
			"studentId":   student.ID,
			"studentName": student.Name,
		})
	}

	// Ties keep advisor input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].match.MatchPercentage > candidates[j].match.MatchPercentage
	})

	result := models.MatchResult{
		StudentID:   student.ID,
		StudentName: student.Name,
	}

	if len(candidates) > 0 && float64(candidates[0].match.MatchPercentage) >= StrongMatchThreshold {
		best := candidates[0]
		advisors[best.index].CurrentLoad++

		assigned := best.match
		result.AssignedAdvisor = &assigned
		result.Status = models.StatusStrongMatch

		m.logger.Debug("strong match", map[string]interface{}{
			"studentId":       student.ID,
			"advisorId":       assigned.AdvisorID,
			"matchPercentage": assigned.MatchPercentage.String(),
		})
		return result
	}

	result.Status = models.StatusNoMatch
	result.Recommendations = make([]models.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		result.Recommendations = append(result.Recommendations, c.match.Recommendation())
	}
	return result
}

func (m *Matcher) reportFullAdvisors(advisors []models.Advisor) {
	full := make([]models.Advisor, 0)
	for _, a := range advisors {
		if !a.HasCapacity() {
			full = append(full, a)
		}
	}
	m.observer.AdvisorsAtCapacity(full)

	if len(full) == 0 {
		return
	}

	lines := make([]string, 0, len(full))
	for _, a := range full {
		lines = append(lines, fmt.Sprintf("%s (ID: %s) - Capacity %d/%d", a.Name, a.ID, a.CurrentLoad, a.MaxCapacity))
	}
	m.logger.Info("advisors skipped at full capacity", map[string]interface{}{
		"count":    len(full),
		"advisors": lines,
	})
}
