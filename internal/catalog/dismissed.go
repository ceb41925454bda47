package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// DismissedJobs is the persisted list of jobs the user no longer wants to see.
type DismissedJobs struct {
	Items []*DismissedJob
}

type DismissedJob struct {
	ID          string
	Title       string
	Company     string
	Reason      string `json:",omitempty"`
	DismissedAt time.Time
}

// ToDismissed converts jobs into dismissed entries stamped with the current time.
func (j *Jobs) ToDismissed(reason string) *DismissedJobs {
	dismissed := &DismissedJobs{}
	for _, job := range j.Items {
		dismissed.Items = append(dismissed.Items, &DismissedJob{
			ID:          job.ID,
			Title:       job.Title,
			Company:     job.Company,
			Reason:      reason,
			DismissedAt: time.Now().UTC(),
		})
	}
	return dismissed
}

// GetDismissedJobsFromFile reads the dismissed list. A missing or empty file is an empty list.
func GetDismissedJobsFromFile(path string) (*DismissedJobs, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &DismissedJobs{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &DismissedJobs{}, nil
	}

	var dismissed DismissedJobs
	if err := json.NewDecoder(file).Decode(&dismissed); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &dismissed, nil
}

// Append adds entries whose ids are not already present.
func (d *DismissedJobs) Append(s *DismissedJobs) {
	seen := make(map[string]struct{}, len(d.Items))
	for _, item := range d.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		d.Items = append(d.Items, item)
	}
}

func (d *DismissedJobs) IDs() []string {
	ids := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (d *DismissedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Dismiss appends jobs to the dismissed file at path.
func Dismiss(path, reason string, jobs ...*Job) error {
	dismissed, err := GetDismissedJobsFromFile(path)
	if err != nil {
		return err
	}

	dismissed.Append((&Jobs{Items: jobs}).ToDismissed(reason))

	return dismissed.ToFile(path)
}
