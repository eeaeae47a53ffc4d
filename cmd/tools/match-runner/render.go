package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"advisor-match-workers/internal/models"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	strongStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true)
	noMatchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
)

// report is what one run produces. Before is a snapshot taken ahead of matching.
type report struct {
	Before  []models.Advisor     `json:"advisorsBefore"`
	Results []models.MatchResult `json:"results"`
	After   []models.Advisor     `json:"advisorsAfter"`
}

func writeJSON(w io.Writer, r report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeText(w io.Writer, r report) error {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Advisors before matching") + "\n")
	b.WriteString(advisorTable(r.Before) + "\n\n")

	b.WriteString(headingStyle.Render("Results") + "\n")
	for _, res := range r.Results {
		b.WriteString(resultBlock(res))
	}
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Advisors after matching") + "\n")
	b.WriteString(advisorTable(r.After) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func advisorTable(advisors []models.Advisor) string {
	rows := make([][]string, 0, len(advisors))
	for _, a := range advisors {
		rows = append(rows, []string{
			a.ID,
			a.Name,
			a.Specialization,
			strings.Join(a.ResearchFocus, ", "),
			strconv.Itoa(a.CurrentLoad) + "/" + strconv.Itoa(a.MaxCapacity),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "SPECIALIZATION", "RESEARCH FOCUS", "LOAD").
		Rows(rows...).
		String()
}

func resultBlock(res models.MatchResult) string {
	var b strings.Builder
	if res.IsStrongMatch() {
		a := res.AssignedAdvisor
		fmt.Fprintf(&b, "%s  %s -> %s (%s%%)\n", strongStyle.Render(res.Status), res.StudentName, a.AdvisorName, a.MatchPercentage)
		fmt.Fprintf(&b, "    %s\n", hintStyle.Render(a.Reason))
		return b.String()
	}

	fmt.Fprintf(&b, "%s  %s\n", noMatchStyle.Render(res.Status), res.StudentName)
	if len(res.Recommendations) == 0 {
		fmt.Fprintf(&b, "    %s\n", hintStyle.Render("no advisor with free capacity"))
	}
	for _, rec := range res.Recommendations {
		fmt.Fprintf(&b, "    - %s (%s%%): %s\n", rec.AdvisorName, rec.MatchPercentage, rec.Reason)
	}
	return b.String()
}
