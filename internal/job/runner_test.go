package job

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pickatale/bookrec/internal/assistant"
	"github.com/pickatale/bookrec/internal/warehouse"
)

type fakeWarehouse struct {
	users       []string
	books       map[string][]warehouse.BookRead
	descs       map[string]string
	activeErr   error
	recentErr   error
	exportCalls int
}

func (f *fakeWarehouse) ExportCatalog(ctx context.Context) (string, error) {
	f.exportCalls++
	path := filepath.Join(os.TempDir(), "bookrec-test-catalog.json")
	if err := os.WriteFile(path, []byte(`{"book_id":"b","title":"t","description":"d"}`+"\n"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeWarehouse) ActiveUsers(ctx context.Context, windowDays, minEvents int) ([]string, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	return f.users, nil
}

func (f *fakeWarehouse) RecentBooks(ctx context.Context, userID string, limit int) ([]warehouse.BookRead, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.books[userID], nil
}

func (f *fakeWarehouse) BookDescription(ctx context.Context, bookID string) (string, error) {
	return f.descs[bookID], nil
}

type fakeAssistant struct {
	provisionErr   error
	analyzeErr     error
	searchErr      error
	summary        string
	recs           []assistant.Recommendation
	provisionCalls int
	teardownCalls  int
	analyzeCalls   int
	searchCalls    int
	histories      []string
}

func (f *fakeAssistant) Provision(ctx context.Context, catalogPath string) (string, error) {
	f.provisionCalls++
	if f.provisionErr != nil {
		return "", f.provisionErr
	}
	return "asst_test", nil
}

func (f *fakeAssistant) Teardown(ctx context.Context, assistantID string) {
	f.teardownCalls++
}

func (f *fakeAssistant) AnalyzeInterest(ctx context.Context, assistantID, history string) (string, error) {
	f.analyzeCalls++
	f.histories = append(f.histories, history)
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return f.summary, nil
}

func (f *fakeAssistant) SearchBooks(ctx context.Context, assistantID, history string) ([]assistant.Recommendation, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.recs, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRunner(wh *fakeWarehouse, fa *fakeAssistant, out io.Writer) *Runner {
	return New(wh, fa, fa, NewPrinter(out), testLogger(), Config{
		WindowDays:     14,
		MinEvents:      5,
		BookLimit:      5,
		LibraryBaseURL: "https://app.pickatale.com/library",
	})
}

func readBooks(n int) []warehouse.BookRead {
	now := time.Now()
	books := make([]warehouse.BookRead, n)
	for i := range books {
		books[i] = warehouse.BookRead{
			EventTime: now.Add(-time.Duration(i) * time.Hour),
			Title:     "Book " + string(rune('A'+i)),
			BookID:    "book-" + string(rune('a'+i)),
		}
	}
	return books
}

func TestRunHappyPath(t *testing.T) {
	wh := &fakeWarehouse{
		users: []string{"alice", "bob"},
		books: map[string][]warehouse.BookRead{
			"alice": readBooks(3),
		},
		descs: map[string]string{"book-a": "about A"},
	}
	fa := &fakeAssistant{
		summary: "Likes adventure.",
		recs: []assistant.Recommendation{
			{BookID: "book-9", Title: "Jungle Friends", Reason: "More adventure"},
		},
	}
	var out bytes.Buffer

	if err := testRunner(wh, fa, &out).Run(context.Background(), 1); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if fa.provisionCalls != 1 {
		t.Errorf("provision calls = %d, want 1", fa.provisionCalls)
	}
	if fa.teardownCalls != 1 {
		t.Errorf("teardown calls = %d, want 1", fa.teardownCalls)
	}
	// maxUsers=1 caps the batch even with two active users.
	if fa.analyzeCalls != 1 || fa.searchCalls != 1 {
		t.Errorf("expected 1 analyze + 1 search, got %d/%d", fa.analyzeCalls, fa.searchCalls)
	}

	// The rendered history carries all three books for the processed user.
	if got := strings.Count(fa.histories[0], "Reading time:"); got != 3 {
		t.Errorf("history blocks = %d, want 3", got)
	}

	printed := out.String()
	if !strings.Contains(printed, "https://app.pickatale.com/library/book/book-9") {
		t.Errorf("missing library link in output:\n%s", printed)
	}
	if !strings.Contains(printed, "Jungle Friends") {
		t.Errorf("missing recommended title in output:\n%s", printed)
	}
}

func TestRunTeardownOnFailure(t *testing.T) {
	t.Run("warehouse failure after provision", func(t *testing.T) {
		wh := &fakeWarehouse{activeErr: errors.New("warehouse down")}
		fa := &fakeAssistant{}

		err := testRunner(wh, fa, io.Discard).Run(context.Background(), 1)
		if err == nil {
			t.Fatal("expected error from active-user query")
		}
		if fa.teardownCalls != 1 {
			t.Errorf("teardown calls = %d, want exactly 1 on failure", fa.teardownCalls)
		}
	})

	t.Run("per-user failure", func(t *testing.T) {
		wh := &fakeWarehouse{users: []string{"alice"}, recentErr: errors.New("query failed")}
		fa := &fakeAssistant{}

		err := testRunner(wh, fa, io.Discard).Run(context.Background(), 1)
		if err == nil {
			t.Fatal("expected error from recent-books query")
		}
		if fa.teardownCalls != 1 {
			t.Errorf("teardown calls = %d, want exactly 1 on failure", fa.teardownCalls)
		}
	})

	t.Run("provision failure tears nothing down", func(t *testing.T) {
		wh := &fakeWarehouse{}
		fa := &fakeAssistant{provisionErr: errors.New("no capacity")}

		err := testRunner(wh, fa, io.Discard).Run(context.Background(), 1)
		if err == nil {
			t.Fatal("expected provisioning error")
		}
		if fa.teardownCalls != 0 {
			t.Errorf("teardown calls = %d, want 0 when nothing was provisioned", fa.teardownCalls)
		}
	})
}

func TestRunTimeoutIsNonFatal(t *testing.T) {
	wh := &fakeWarehouse{
		users: []string{"alice", "bob"},
		books: map[string][]warehouse.BookRead{
			"alice": readBooks(1),
			"bob":   readBooks(1),
		},
		descs: map[string]string{},
	}
	fa := &fakeAssistant{analyzeErr: assistant.ErrRunTimeout}

	if err := testRunner(wh, fa, io.Discard).Run(context.Background(), 2); err != nil {
		t.Fatalf("Run() error = %v, want timed-out users skipped", err)
	}
	// Both users attempted analysis; neither reached the search step.
	if fa.analyzeCalls != 2 {
		t.Errorf("analyze calls = %d, want 2", fa.analyzeCalls)
	}
	if fa.searchCalls != 0 {
		t.Errorf("search calls = %d, want 0 after timeouts", fa.searchCalls)
	}
	if fa.teardownCalls != 1 {
		t.Errorf("teardown calls = %d, want 1", fa.teardownCalls)
	}
}

func TestRunEmptyResultsContinue(t *testing.T) {
	wh := &fakeWarehouse{
		users: []string{"alice"},
		books: map[string][]warehouse.BookRead{"alice": readBooks(2)},
		descs: map[string]string{},
	}
	// Failed/cancelled runs surface as empty results, not errors.
	fa := &fakeAssistant{summary: "", recs: nil}
	var out bytes.Buffer

	if err := testRunner(wh, fa, &out).Run(context.Background(), 1); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "No recommendations") {
		t.Errorf("expected empty-result notice in output:\n%s", out.String())
	}
	if fa.teardownCalls != 1 {
		t.Errorf("teardown calls = %d, want 1", fa.teardownCalls)
	}
}
