package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const acceptEncoding = "gzip"

// Loader reads the catalog from a local file or an http(s) URL.
type Loader struct {
	HTTPClient *http.Client
	logger     *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{HTTPClient: http.DefaultClient, logger: logger}
}

// Load never fails: a missing or unparseable catalog is logged and replaced by an empty one.
func (l *Loader) Load(ctx context.Context, source string) *Jobs {
	source = strings.TrimSpace(source)
	if source == "" {
		l.logger.Warn("catalog source is not configured, using an empty catalog")
		return &Jobs{}
	}

	jobs, err := l.Read(ctx, source)
	if err != nil {
		l.logger.Warn("loading catalog failed, using an empty catalog", zap.String("source", source), zap.Error(err))
		return &Jobs{}
	}

	l.logger.Info("catalog loaded", zap.String("source", source), zap.Int("count", jobs.Len()))
	return jobs
}

// Read loads and decodes the catalog, returning any error.
func (l *Loader) Read(ctx context.Context, source string) (*Jobs, error) {
	var (
		data []byte
		err  error
	)

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = l.fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	return l.Decode(data)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	l.logger.Debug("make request", zap.String("url", url))
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// Decode accepts either a bare array of jobs or an object with a "jobs" array.
// Fields are decoded loosely: numeric ids become strings and comma-separated keywords become lists.
func (l *Loader) Decode(data []byte) (*Jobs, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	var items []any
	switch typed := raw.(type) {
	case []any:
		items = typed
	case map[string]any:
		list, ok := typed["jobs"].([]any)
		if !ok {
			return nil, fmt.Errorf("catalog object has no jobs array")
		}
		items = list
	default:
		return nil, fmt.Errorf("unexpected catalog type %T", raw)
	}

	jobs := &Jobs{Items: make([]*Job, 0, len(items))}
	seen := make(map[string]struct{}, len(items))
	for idx, item := range items {
		job, err := decodeJob(item)
		if err != nil {
			l.logger.Warn("skipping catalog entry", zap.Int("index", idx), zap.Error(err))
			continue
		}
		if _, ok := seen[job.ID]; ok {
			l.logger.Warn("skipping duplicate catalog entry", zap.String("job_id", job.ID))
			continue
		}
		seen[job.ID] = struct{}{}
		jobs.Items = append(jobs.Items, job)
	}

	return jobs, nil
}

func decodeJob(item any) (*Job, error) {
	var job Job
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		WeaklyTypedInput: true,
		Result:           &job,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(item); err != nil {
		return nil, err
	}

	job.ID = strings.TrimSpace(job.ID)
	if job.ID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	keywords := make([]string, 0, len(job.Keywords))
	for _, keyword := range job.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	job.Keywords = keywords

	return &job, nil
}
