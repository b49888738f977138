package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/candidate-intel/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Failure is one document that could not be processed
type Failure struct {
	File  string
	Error string
}

// CandidateFacts are the derived profile facts printed with a ranked candidate
type CandidateFacts struct {
	YearsOfExperience int
	HighestEducation  string
	CurrentRole       string
}

// Printer renders batch results for the terminal
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(clip(title, inner), inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(clip(line, inner), inner))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad right-pads by rune count so boxes stay aligned with accented names
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func writeList(sb *strings.Builder, label string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintBatchSummary outputs the batch status line
func (p *Printer) PrintBatchSummary(batchID, status string, processed, total int, rankingDegraded bool) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Batch:     %s\n", batchID))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", status))
	sb.WriteString(fmt.Sprintf("Processed: %d of %d", processed, total))
	if rankingDegraded {
		sb.WriteString("\nRanking:   fallback order (service unavailable)")
	}
	p.printBox("BATCH SUMMARY", sb.String())
}

// PrintRequirements outputs the requirements extracted from the job description
func (p *Printer) PrintRequirements(reqs *types.RequirementSet) {
	if reqs == nil {
		return
	}
	var sb strings.Builder
	writeList(&sb, "Must have", reqs.MustHave, maxItemsToShow)
	writeList(&sb, "Skills", reqs.Skills, maxItemsToShow)
	writeList(&sb, "Experience", reqs.Experience, 3)
	writeList(&sb, "Education", reqs.Education, 3)
	if sb.Len() == 0 {
		sb.WriteString("No requirements extracted")
	}
	p.printBox("JOB REQUIREMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidate outputs one ranked candidate with scores, skill match and assessment
func (p *Printer) PrintCandidate(c types.RankedCandidate, facts CandidateFacts) {
	name := "(unnamed)"
	if c.Profile != nil && c.Profile.Personal.Name != nil {
		name = *c.Profile.Personal.Name
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:      %s\n", c.FileName))
	if c.Profile != nil && c.Profile.Fallback {
		sb.WriteString("Profile:   local fallback (lower fidelity)\n")
	}
	if facts.CurrentRole != "" {
		sb.WriteString(fmt.Sprintf("Current:   %s\n", facts.CurrentRole))
	}
	sb.WriteString(fmt.Sprintf("Experience: %d years", facts.YearsOfExperience))
	if facts.HighestEducation != "" {
		sb.WriteString(fmt.Sprintf(", %s", facts.HighestEducation))
	}
	sb.WriteString("\n\n")

	s := c.Score
	sb.WriteString(fmt.Sprintf("Overall %.2f  (must-have %.2f, semantic %.2f, recency %.2f, impact %.2f)\n",
		s.OverallScore, s.MustHaveScore, s.SemanticScore, s.RecencyScore, s.ImpactScore))
	if c.Assessment != nil {
		sb.WriteString(fmt.Sprintf("Assessment %d/100, %s\n", c.Assessment.Score, c.RecommendationLevel))
	}
	if c.DedupAction != "" {
		sb.WriteString(fmt.Sprintf("Store:     %s", c.DedupAction))
		if c.Similarity != nil {
			sb.WriteString(fmt.Sprintf(" (similarity %d%%)", *c.Similarity))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if c.SkillMatch != nil {
		writeList(&sb, "Matched", c.SkillMatch.MatchedSkills, maxItemsToShow)
		writeList(&sb, "Missing", c.SkillMatch.MissingSkills, maxItemsToShow)
	}
	if c.RankingReason != "" {
		sb.WriteString("Why: " + c.RankingReason + "\n")
	}
	if len(c.Verification.Issues) > 0 {
		writeList(&sb, "Issues", c.Verification.Issues, 3)
	}

	p.printBox(fmt.Sprintf("#%d  %s", c.Rank, name), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuestions outputs generated interview questions
func (p *Printer) PrintQuestions(q *types.InterviewQuestions) {
	if q == nil {
		return
	}
	var sb strings.Builder
	writeList(&sb, "Technical", q.Technical, 3)
	writeList(&sb, "Behavioral", q.Behavioral, 3)
	writeList(&sb, "Gap probing", q.GapProbing, 3)
	writeList(&sb, "Scenario", q.Scenario, 3)
	if sb.Len() == 0 {
		return
	}
	title := "INTERVIEW QUESTIONS"
	if q.Degraded {
		title += " (fallback)"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFailures outputs documents that could not be processed
func (p *Printer) PrintFailures(failures []Failure) {
	if len(failures) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Failed %d documents:\n\n", len(failures)))
	for i, f := range failures {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", f.File))
		sb.WriteString(fmt.Sprintf("  %s", f.Error))
		if i < len(failures)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("FAILED DOCUMENTS", sb.String())
}
