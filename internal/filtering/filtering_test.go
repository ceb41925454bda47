package filtering

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spigell/skillmatch/internal/catalog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testJobs() *catalog.Jobs {
	return &catalog.Jobs{Items: []*catalog.Job{
		{ID: "1", Title: "Go", Company: "Acme"},
		{ID: "2", Title: "Rust", Company: "Beta"},
		{ID: "3", Title: "ML", Company: "Gamma"},
	}}
}

func TestRunAppliesStepsAndLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dismissed.json")
	if err := catalog.Dismiss(path, "", &catalog.Job{ID: "3"}); err != nil {
		t.Fatal(err)
	}

	core, observed := observer.New(zapcore.InfoLevel)
	f := New([]Filter{NewExcludedCompanies([]string{"acme"}), NewDismissedFile(path)}, zap.New(core))

	jobs := testJobs()
	got, err := f.Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Len() != 1 || got.Items[0].ID != "2" {
		t.Fatalf("unexpected jobs left: %+v", got.Items)
	}
	if jobs.Len() != 3 {
		t.Fatalf("input collection was modified")
	}

	entries := observed.FilterMessage("filter step").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 step entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["dropped"] != int64(1) || entries[1].ContextMap()["left"] != int64(1) {
		t.Fatalf("unexpected step fields: %v %v", entries[0].ContextMap(), entries[1].ContextMap())
	}
}

func TestDisabledStepIsSkipped(t *testing.T) {
	f := New([]Filter{NewExcludedCompanies([]string{"Acme", "Beta"})}, nil)
	f.DisableByName("companies", "flag")

	got, err := f.Run(context.Background(), testJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected all jobs, got %d", got.Len())
	}

	status := f.Describe()
	if len(status) != 1 || status[0].Enabled || status[0].Reason != "flag" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

type failingFilter struct{ companiesFilter }

func (failingFilter) Name() string    { return "broken" }
func (failingFilter) IsEnabled() bool { return true }
func (failingFilter) Validate() error { return errors.New("misconfigured") }

func TestValidateErrorStopsRun(t *testing.T) {
	_, err := New([]Filter{&failingFilter{}}, nil).Run(context.Background(), testJobs())
	if err == nil || err.Error() != "broken: misconfigured" {
		t.Fatalf("expected validation error, got %v", err)
	}
}
