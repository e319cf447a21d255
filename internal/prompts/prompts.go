// Package prompts renders the fixed prompt templates for the
// recommendation assistant. Rendering is pure: the same reading history
// always produces the same prompt text.
package prompts

import (
	"bytes"
	_ "embed"
	"text/template"
	"time"
)

//go:embed instructions.tmpl
var instructionsText string

//go:embed history_record.tmpl
var historyRecordTmpl string

//go:embed interest_analysis.tmpl
var interestAnalysisTmpl string

//go:embed recommendation_search.tmpl
var recommendationSearchTmpl string

var (
	historyRecordTemplate        = template.Must(template.New("history_record").Parse(historyRecordTmpl))
	interestAnalysisTemplate     = template.Must(template.New("interest_analysis").Parse(interestAnalysisTmpl))
	recommendationSearchTemplate = template.Must(template.New("recommendation_search").Parse(recommendationSearchTmpl))
)

// HistoryEntry is one book in a reader's history, most recent first.
type HistoryEntry struct {
	EventTime   time.Time
	Title       string
	Description string
}

// AssistantInstructions returns the system instructions for the assistant.
func AssistantInstructions() string {
	return instructionsText
}

// ReadingHistory renders one block per entry, preserving input order.
func ReadingHistory(entries []HistoryEntry) string {
	var buf bytes.Buffer
	for _, e := range entries {
		data := struct {
			EventTime   string
			Title       string
			Description string
		}{
			EventTime:   e.EventTime.Format("2006-01-02 15:04:05"),
			Title:       e.Title,
			Description: e.Description,
		}
		// Static template over plain strings; Execute cannot fail.
		_ = historyRecordTemplate.Execute(&buf, data)
	}
	return buf.String()
}

// InterestAnalysis builds the user prompt for the interest-analysis run.
func InterestAnalysis(readingHistory string) string {
	return renderHistoryPrompt(interestAnalysisTemplate, readingHistory)
}

// RecommendationSearch builds the user prompt for the catalog-search run.
func RecommendationSearch(readingHistory string) string {
	return renderHistoryPrompt(recommendationSearchTemplate, readingHistory)
}

func renderHistoryPrompt(tmpl *template.Template, readingHistory string) string {
	var buf bytes.Buffer
	data := struct{ ReadingHistory string }{ReadingHistory: readingHistory}
	if err := tmpl.Execute(&buf, data); err != nil {
		return readingHistory
	}
	return buf.String()
}
