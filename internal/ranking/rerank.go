package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/profile"
	"github.com/spigell/skillmatch/internal/utils"
	"go.uber.org/zap"
)

var (
	//go:embed rerank_prompt.md
	rerankPrompt string
	//go:embed rerank_schema.json
	rerankSchemaSource string

	rerankSchema = ai.MustSchema(rerankSchemaSource)
)

const (
	// DescriptionRunes bounds the job description sent to the capability.
	DescriptionRunes = 600

	defaultMaxLogLength = 200
)

// ErrNoMatches is returned when the capability answer holds no usable job.
var ErrNoMatches = errors.New("no usable matches")

type rerankSkill struct {
	Name  string        `json:"name"`
	Level profile.Level `json:"level"`
}

type rerankProject struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	TechStack []string `json:"techStack"`
}

type rerankProfile struct {
	Preferences profile.Preferences `json:"preferences"`
	Interests   []string            `json:"interests"`
	About       string              `json:"about"`
	Skills      []rerankSkill       `json:"skills"`
	Projects    []rerankProject     `json:"projects"`
	Keywords    []string            `json:"keywords"`
}

type rerankJob struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Company            string   `json:"company"`
	Location           string   `json:"location"`
	Keywords           []string `json:"keywords"`
	Description        string   `json:"description"`
	BaselinePreference float64  `json:"baselinePreference"`
	BaselineSkill      float64  `json:"baselineSkill"`
}

type rerankPayload struct {
	Profile rerankProfile `json:"profile"`
	Jobs    []rerankJob   `json:"jobs"`
}

// Reranker scores a shortlist with the completion capability.
type Reranker struct {
	completer ai.Completer
	logger    *zap.Logger
	maxLogLen int
}

func NewReranker(completer ai.Completer, maxLogLength int, log *zap.Logger) *Reranker {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Reranker{
		completer: completer,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}
}

// Enabled reports whether a capability is configured.
func (r *Reranker) Enabled() bool {
	return r != nil && r.completer != nil
}

// Rerank sends candidates to the capability and returns at most limit jobs ordered by overall
// score. Answer ids are resolved against jobs, the catalog being ranked; a nil catalog means the
// candidates themselves. It fails with ErrNoMatches when the answer names no known job.
func (r *Reranker) Rerank(ctx context.Context, p *profile.Profile, candidates []Candidate, jobs *catalog.Jobs, limit int) ([]RankedJob, error) {
	if !r.Enabled() {
		return nil, errors.New("capability is not configured")
	}
	if len(candidates) == 0 {
		return nil, ErrNoMatches
	}

	body, err := json.Marshal(buildPayload(p, candidates))
	if err != nil {
		return nil, fmt.Errorf("marshal rerank payload: %w", err)
	}

	r.logger.Debug("rerank request",
		zap.Int("jobs", len(candidates)),
		zap.Int("payload_length", utf8.RuneCount(body)),
	)

	raw, err := r.completer.Complete(ctx, rerankPrompt, string(body))
	if err != nil {
		return nil, err
	}

	r.logger.Debug("rerank response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	if jobs == nil {
		jobs = candidateJobs(candidates)
	}
	return ParseMatches(raw, jobs, limit)
}

func candidateJobs(candidates []Candidate) *catalog.Jobs {
	jobs := &catalog.Jobs{Items: make([]*catalog.Job, 0, len(candidates))}
	for _, c := range candidates {
		jobs.Items = append(jobs.Items, c.Job)
	}
	return jobs
}

func buildPayload(p *profile.Profile, candidates []Candidate) rerankPayload {
	payload := rerankPayload{Jobs: make([]rerankJob, 0, len(candidates))}

	if p != nil {
		payload.Profile = rerankProfile{
			Preferences: p.Preferences,
			Interests:   p.Interests,
			About:       p.About,
			Skills:      make([]rerankSkill, 0, len(p.Skills)),
			Projects:    make([]rerankProject, 0, len(p.Projects)),
			Keywords:    p.Keywords,
		}
		for _, skill := range p.Skills {
			payload.Profile.Skills = append(payload.Profile.Skills, rerankSkill{Name: skill.Name, Level: skill.Level})
		}
		for _, project := range p.Projects {
			payload.Profile.Projects = append(payload.Profile.Projects, rerankProject{
				Title:     project.Title,
				Summary:   project.Summary,
				TechStack: project.TechStack,
			})
		}
	}

	for _, c := range candidates {
		payload.Jobs = append(payload.Jobs, rerankJob{
			ID:                 c.Job.ID,
			Title:              c.Job.Title,
			Company:            c.Job.Company,
			Location:           c.Job.Location,
			Keywords:           c.Job.Keywords,
			Description:        utils.TruncateRunes(c.Job.Description, DescriptionRunes),
			BaselinePreference: percent(c.BaselinePreference),
			BaselineSkill:      percent(c.BaselineSkill),
		})
	}

	return payload
}

// ParseMatches reads the capability answer. Ids missing from jobs are dropped, the first entry
// wins for repeated ids, missing or non-numeric scores count as 0 and every score is clamped to [0,100].
func ParseMatches(raw string, jobs *catalog.Jobs, limit int) ([]RankedJob, error) {
	data, err := ai.ParseObject(raw, rerankSchema)
	if err != nil {
		return nil, err
	}

	items, _ := data["matches"].([]any)
	ranked := make([]RankedJob, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		id := ai.CoerceString(entry["jobId"])
		if id == "" {
			id = ai.CoerceString(entry["id"])
		}
		job := jobs.FindByID(id)
		if id == "" || job == nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		scores, _ := entry["scores"].(map[string]any)
		if scores == nil {
			scores = entry
		}
		reasons, _ := entry["reasons"].(map[string]any)

		ranked = append(ranked, RankedJob{
			Job: *job,
			Scores: Scores{
				Preference: score(scores["preference"]),
				Skill:      score(scores["skill"]),
				Overall:    score(scores["overall"]),
			},
			Reasons: Reasons{
				Preference: ai.CoerceString(reasons["preference"]),
				Skill:      ai.CoerceString(reasons["skill"]),
			},
		})
	}

	if len(ranked) == 0 {
		return nil, ErrNoMatches
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.Overall > ranked[j].Scores.Overall
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func score(v any) float64 {
	f := ai.CoerceFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return clamp(f)
}
