package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Result statuses produced by the matcher.
const (
	StatusStrongMatch = "Strong Match"
	StatusNoMatch     = "No suitable match found"
)

// Student is the matcher's read-only view of a student.
type Student struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	AcademicField     string   `json:"academicField" yaml:"academicField"`
	ResearchInterests []string `json:"researchInterests" yaml:"researchInterests"`
}

// Advisor is the matcher's view of an advisor. CurrentLoad is incremented in place
// for every committed assignment.
type Advisor struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Specialization string   `json:"specialization" yaml:"specialization"`
	ResearchFocus  []string `json:"researchFocus" yaml:"researchFocus"`
	MaxCapacity    int      `json:"maxCapacity" yaml:"maxCapacity"`
	CurrentLoad    int      `json:"currentLoad" yaml:"currentLoad"`
}

// HasCapacity reports whether the advisor can take one more student.
func (a Advisor) HasCapacity() bool {
	return a.CurrentLoad < a.MaxCapacity
}

// Percentage is a match percentage already rounded to two decimals.
// It is encoded as text ("87.50") and decodes from either text or a number.
type Percentage float64

func (p Percentage) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

func (p Percentage) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Percentage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid percentage %q: %w", s, err)
		}
		*p = Percentage(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid percentage %s: %w", data, err)
	}
	*p = Percentage(f)
	return nil
}

// AdvisorMatch is one scored candidate for one student.
type AdvisorMatch struct {
	AdvisorID        string     `json:"advisorId"`
	AdvisorName      string     `json:"advisorName"`
	MatchPercentage  Percentage `json:"matchPercentage"`
	MatchedInterests []string   `json:"matchedInterests"`
	Reason           string     `json:"reason"`
}

// Recommendation drops the advisor id and matched interests from an AdvisorMatch.
type Recommendation struct {
	AdvisorName     string     `json:"advisorName"`
	MatchPercentage Percentage `json:"matchPercentage"`
	Reason          string     `json:"reason"`
}

func (m AdvisorMatch) Recommendation() Recommendation {
	return Recommendation{
		AdvisorName:     m.AdvisorName,
		MatchPercentage: m.MatchPercentage,
		Reason:          m.Reason,
	}
}

// MatchResult is the outcome for one student. Exactly one of AssignedAdvisor and
// Recommendations is meaningful, selected by Status.
type MatchResult struct {
	StudentID       string           `json:"studentId"`
	StudentName     string           `json:"studentName"`
	AssignedAdvisor *AdvisorMatch    `json:"assignedAdvisor"`
	Status          string           `json:"status"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// IsStrongMatch reports whether an advisor was assigned.
func (r MatchResult) IsStrongMatch() bool {
	return r.AssignedAdvisor != nil
}

// MarshalJSON always writes assignedAdvisor (null when unassigned) and writes
// recommendations, possibly empty, only for unassigned results.
func (r MatchResult) MarshalJSON() ([]byte, error) {
	type wire struct {
		StudentID       string            `json:"studentId"`
		StudentName     string            `json:"studentName"`
		AssignedAdvisor *AdvisorMatch     `json:"assignedAdvisor"`
		Status          string            `json:"status"`
		Recommendations *[]Recommendation `json:"recommendations,omitempty"`
	}

	w := wire{
		StudentID:       r.StudentID,
		StudentName:     r.StudentName,
		AssignedAdvisor: r.AssignedAdvisor,
		Status:          r.Status,
	}
	if r.AssignedAdvisor == nil {
		recs := r.Recommendations
		if recs == nil {
			recs = []Recommendation{}
		}
		w.Recommendations = &recs
	}
	return json.Marshal(w)
}
