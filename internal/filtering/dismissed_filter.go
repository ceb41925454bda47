package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/skillmatch/internal/catalog"
)

type dismissedFilter struct {
	path    string
	enabled bool
	reason  string
}

// NewDismissedFile creates a filter that removes jobs listed in the dismissed-jobs file.
func NewDismissedFile(path string) Filter {
	return &dismissedFilter{
		path:    path,
		enabled: true,
	}
}

func (f *dismissedFilter) Name() string { return "dismissed_file" }

func (f *dismissedFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *dismissedFilter) DisabledReason() string { return f.reason }

func (f *dismissedFilter) IsEnabled() bool { return f.enabled }

func (f *dismissedFilter) Validate() error { return nil }

func (f *dismissedFilter) Apply(_ context.Context, jobs *catalog.Jobs) (*catalog.Jobs, Step, error) {
	initial := jobs.Len()
	if f.path == "" {
		return jobs, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	dismissed, err := catalog.GetDismissedJobsFromFile(f.path)
	if err != nil {
		return jobs, Step{}, fmt.Errorf("getting dismissed jobs from file: %w", err)
	}

	removed := jobs.Exclude(catalog.JobIDField, dismissed.IDs())

	return jobs, Step{Initial: initial, Dropped: len(removed), Left: jobs.Len()}, nil
}
