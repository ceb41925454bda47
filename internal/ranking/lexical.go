// Package ranking orders catalog jobs against a profile: a cheap lexical prefilter
// followed by an optional semantic rerank.
package ranking

import (
	"math"
	"sort"

	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/tokens"
)

const (
	PreferenceWeight = 0.7
	SkillWeight      = 0.3

	// BaselineReason marks scores that come from the lexical stage only.
	BaselineReason = "baseline"
)

// Candidate is a job with its lexical similarities in [0,1].
type Candidate struct {
	Job                *catalog.Job
	BaselineSkill      float64
	BaselinePreference float64
	Composite          float64
}

type Scores struct {
	Preference float64 `json:"preference"`
	Skill      float64 `json:"skill"`
	Overall    float64 `json:"overall"`
}

type Reasons struct {
	Preference string `json:"preference"`
	Skill      string `json:"skill"`
}

// RankedJob is a catalog job with scores in [0,100].
type RankedJob struct {
	catalog.Job
	Scores  Scores  `json:"scores"`
	Reasons Reasons `json:"reasons"`
}

// Jaccard is |a∩b| / |a∪b|, and 0 when both sets are empty.
func Jaccard(a, b tokens.Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for token := range small {
		if _, ok := large[token]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Prefilter scores every job and returns the top limit candidates by composite.
// Ties keep catalog order. A limit <= 0 returns every job.
func Prefilter(jobs *catalog.Jobs, skillTokens, preferenceTokens []string, limit int) []Candidate {
	skill := tokens.NewSet(skillTokens)
	pref := tokens.NewSet(preferenceTokens)

	candidates := make([]Candidate, 0, jobs.Len())
	if jobs == nil {
		return candidates
	}
	for _, job := range jobs.Items {
		jobTokens := tokens.NewSet(tokens.Tokenize(job.Text()))

		c := Candidate{Job: job}
		if len(skill) > 0 {
			c.BaselineSkill = Jaccard(jobTokens, skill)
		}
		if len(pref) > 0 {
			c.BaselinePreference = Jaccard(jobTokens, pref)
		}
		c.Composite = PreferenceWeight*c.BaselinePreference + SkillWeight*c.BaselineSkill
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Composite > candidates[j].Composite
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Baseline turns candidates into ranked jobs without a semantic stage, keeping their order.
// Overall is the preference score when the profile has preference tokens, the skill score otherwise.
func Baseline(candidates []Candidate, hasPreference bool, limit int) []RankedJob {
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	ranked := make([]RankedJob, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, baselineJob(c, hasPreference))
	}
	return ranked
}

func baselineJob(c Candidate, hasPreference bool) RankedJob {
	scores := Scores{
		Preference: percent(c.BaselinePreference),
		Skill:      percent(c.BaselineSkill),
	}
	scores.Overall = scores.Skill
	if hasPreference {
		scores.Overall = scores.Preference
	}

	return RankedJob{
		Job:     *c.Job,
		Scores:  scores,
		Reasons: Reasons{Preference: BaselineReason, Skill: BaselineReason},
	}
}

// percent maps a [0,1] similarity to [0,100] with one decimal.
func percent(v float64) float64 {
	return math.Round(clamp(v*100)*10) / 10
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
