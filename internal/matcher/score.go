package matcher

import (
	"fmt"
	"math"
	"strings"

	"advisor-match-workers/internal/models"
)

const (
	// InterestWeight is awarded in proportion to the share of the student's
	// interests found in the advisor's research focus.
	InterestWeight = 40.0
	// FieldWeight is awarded when the advisor's specialization equals the student's field.
	FieldWeight = 30.0
	// TotalWeight is the maximum score; percentages are relative to it.
	TotalWeight = InterestWeight + FieldWeight
	// StrongMatchThreshold is the minimum rounded percentage for an assignment.
	StrongMatchThreshold = 50.0
)

// Score rates one advisor for one student. Membership is verbatim and case-sensitive,
// and a student without interests gets no interest points.
func Score(student models.Student, advisor models.Advisor) models.AdvisorMatch {
	focus := make(map[string]struct{}, len(advisor.ResearchFocus))
	for _, f := range advisor.ResearchFocus {
		focus[f] = struct{}{}
	}

	matched := make([]string, 0, len(student.ResearchInterests))
	for _, interest := range student.ResearchInterests {
		if _, ok := focus[interest]; ok {
			matched = append(matched, interest)
		}
	}

	var score float64
	if n := len(student.ResearchInterests); n > 0 {
		score += float64(len(matched)) / float64(n) * InterestWeight
	}

	sameField := advisor.Specialization == student.AcademicField
	if sameField {
		score += FieldWeight
	}

	return models.AdvisorMatch{
		AdvisorID:        advisor.ID,
		AdvisorName:      advisor.Name,
		MatchPercentage:  roundPercentage(score / TotalWeight * 100),
		MatchedInterests: matched,
		Reason:           reason(student.AcademicField, matched, sameField),
	}
}

func roundPercentage(v float64) models.Percentage {
	return models.Percentage(math.Round(v*100) / 100)
}

func reason(field string, matched []string, sameField bool) string {
	shared := strings.Join(matched, ", ")
	switch {
	case len(matched) > 0 && sameField:
		return fmt.Sprintf("Shares same field (%s) and common interests: %s.", field, shared)
	case len(matched) > 0:
		return fmt.Sprintf("Different field but shares interests in %s.", shared)
	case sameField:
		return fmt.Sprintf("Same academic field (%s), but different research focus.", field)
	default:
		return "Different field and no shared interests."
	}
}
