// Package catalog holds the static job catalog recommendations are ranked against.
package catalog

import (
	"encoding/json"
	"os"
	"strings"
)

const (
	JobIDField      = "ID"
	JobCompanyField = "Company"
)

// Job is a read-only catalog entry.
type Job struct {
	ID          string   `json:"id" mapstructure:"id"`
	Title       string   `json:"title" mapstructure:"title"`
	Company     string   `json:"company" mapstructure:"company"`
	Location    string   `json:"location" mapstructure:"location"`
	Description string   `json:"description" mapstructure:"description"`
	Keywords    []string `json:"keywords" mapstructure:"keywords"`
}

// Text is the job text the lexical stage tokenizes.
func (j *Job) Text() string {
	parts := []string{j.Title, j.Company, j.Location, j.Description}
	parts = append(parts, j.Keywords...)
	return strings.Join(parts, " ")
}

func (j *Job) GetStringField(name string) string {
	switch name {
	case JobIDField:
		return j.ID
	case JobCompanyField:
		return j.Company
	default:
		return ""
	}
}

// Jobs is an ordered job collection. Catalog order is significant: it breaks ranking ties.
type Jobs struct {
	Items []*Job
}

func (j *Jobs) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	if j == nil {
		return nil
	}
	for _, job := range j.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// Clone returns a collection sharing the jobs but not the slice, so filters do not touch the catalog.
func (j *Jobs) Clone() *Jobs {
	if j == nil {
		return &Jobs{}
	}
	return &Jobs{Items: append([]*Job(nil), j.Items...)}
}

// Exclude removes jobs whose field matches any target (case-insensitive) and returns the removed ids.
// Order of the remaining jobs is preserved.
func (j *Jobs) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	var excluded []string
	kept := j.Items[:0]
	for _, job := range j.Items {
		if _, ok := set[strings.ToLower(strings.TrimSpace(job.GetStringField(name)))]; ok {
			excluded = append(excluded, job.ID)
			continue
		}
		kept = append(kept, job)
	}
	j.Items = kept

	return excluded
}

// ReportByCompany groups job titles by company.
func (j *Jobs) ReportByCompany() map[string][]string {
	report := make(map[string][]string)
	for _, job := range j.Items {
		report[job.Company] = append(report[job.Company], job.Title)
	}
	return report
}

// DumpToTmpFile writes v as indented JSON into a new temp file and returns its name.
func DumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
