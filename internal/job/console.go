package job

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pickatale/bookrec/internal/assistant"
)

// Printer writes the human-readable batch progress and results.
type Printer struct {
	w         io.Writer
	boldCyan  func(a ...interface{}) string
	boldGreen func(a ...interface{}) string
	yellow    func(a ...interface{}) string
}

// NewPrinter creates a console printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:         w,
		boldCyan:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		boldGreen: color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:    color.New(color.FgYellow).SprintFunc(),
	}
}

// CatalogExported reports the catalog document path.
func (p *Printer) CatalogExported(path string) {
	fmt.Fprintf(p.w, "Library data file created at: %s\n", path)
}

// UserHeader opens one user's section.
func (p *Printer) UserHeader(userID string, bookCount int) {
	fmt.Fprintf(p.w, "\n%s %s has read %d books\n", p.boldCyan("User"), userID, bookCount)
}

// InterestSummary prints the analysis-run result for one user.
func (p *Printer) InterestSummary(userID, summary string) {
	if summary == "" {
		fmt.Fprintf(p.w, "%s\n", p.yellow("No interest summary produced for "+userID+"."))
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.boldGreen("Interest summary for "+userID+":"), summary)
}

// Recommendations prints the recommended books with their library links.
func (p *Printer) Recommendations(baseURL string, recs []assistant.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintf(p.w, "%s\n", p.yellow("No recommendations for this user."))
		return
	}
	fmt.Fprintf(p.w, "\n%s\n", p.boldGreen("User may like these books:"))
	for _, rec := range recs {
		fmt.Fprintf(p.w, "- %s/book/%s\n  Title: %s\n  Reason: %s\n\n",
			strings.TrimRight(baseURL, "/"), rec.BookID, rec.Title, rec.Reason)
	}
}

// CleaningUp reports the start of assistant teardown.
func (p *Printer) CleaningUp() {
	fmt.Fprintf(p.w, "\n%s\n", p.boldCyan("Cleaning up..."))
}
