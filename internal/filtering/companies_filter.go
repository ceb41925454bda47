package filtering

import (
	"context"

	"github.com/spigell/skillmatch/internal/catalog"
)

type companiesFilter struct {
	companies []string
	enabled   bool
	reason    string
}

// NewExcludedCompanies creates a filter that removes jobs posted by the configured companies.
func NewExcludedCompanies(companies []string) Filter {
	return &companiesFilter{
		companies: companies,
		enabled:   true,
	}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *companiesFilter) DisabledReason() string { return f.reason }

func (f *companiesFilter) IsEnabled() bool { return f.enabled }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, jobs *catalog.Jobs) (*catalog.Jobs, Step, error) {
	initial := jobs.Len()
	if len(f.companies) == 0 {
		return jobs, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded := jobs.Exclude(catalog.JobCompanyField, f.companies)

	return jobs, Step{Initial: initial, Dropped: len(excluded), Left: jobs.Len()}, nil
}
