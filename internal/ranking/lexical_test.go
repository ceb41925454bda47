package ranking

import (
	"fmt"
	"math"
	"testing"

	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/tokens"
)

func threeJobs() *catalog.Jobs {
	return &catalog.Jobs{Items: []*catalog.Job{
		{ID: "1", Title: "Accountant", Company: "Ledger", Location: "Paris", Keywords: []string{"finance"}},
		{ID: "2", Title: "Climate Analyst", Company: "Terra", Location: "Oslo", Keywords: []string{"climate", "policy"}},
		{ID: "3", Title: "Chef", Company: "Bistro", Location: "Rome", Keywords: []string{"cooking"}},
	}}
}

func TestJaccard(t *testing.T) {
	empty := tokens.NewSet(nil)
	a := tokens.NewSet([]string{"go", "rust", "sql"})
	b := tokens.NewSet([]string{"go", "python"})

	if got := Jaccard(empty, empty); got != 0 {
		t.Fatalf("expected 0 for empty sets, got %v", got)
	}
	if got := Jaccard(a, empty); got != 0 {
		t.Fatalf("expected 0 against empty set, got %v", got)
	}
	if got := Jaccard(a, a); got != 1 {
		t.Fatalf("expected identity to be 1, got %v", got)
	}
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Fatal("jaccard is not symmetric")
	}
	if got := Jaccard(a, b); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestPrefilterCompositeRangeAndFormula(t *testing.T) {
	jobs := &catalog.Jobs{}
	for i := 0; i < 20; i++ {
		jobs.Items = append(jobs.Items, &catalog.Job{
			ID:          fmt.Sprintf("%d", i),
			Title:       fmt.Sprintf("role%d engineer", i%4),
			Description: fmt.Sprintf("kubernetes remote berlin team%d", i%3),
		})
	}
	skill := []string{"kubernetes", "engineer", "role1"}
	pref := []string{"remote", "berlin", "team2"}

	for _, c := range Prefilter(jobs, skill, pref, 0) {
		if c.Composite < 0 || c.Composite > 1 {
			t.Fatalf("composite out of range: %v", c.Composite)
		}
		want := PreferenceWeight*c.BaselinePreference + SkillWeight*c.BaselineSkill
		if math.Abs(c.Composite-want) > 1e-9 {
			t.Fatalf("composite %v, want %v", c.Composite, want)
		}
	}
}

func TestPrefilterEmptyProfileKeepsCatalogOrder(t *testing.T) {
	got := Prefilter(threeJobs(), nil, nil, 2)
	if len(got) != 2 {
		t.Fatalf("expected shortlist of 2, got %d", len(got))
	}
	for i, c := range got {
		if c.Composite != 0 {
			t.Fatalf("expected zero composite, got %v", c.Composite)
		}
		if c.Job.ID != fmt.Sprintf("%d", i+1) {
			t.Fatalf("expected catalog order, got %s at %d", c.Job.ID, i)
		}
	}
}

func TestBaselinePreferenceScenario(t *testing.T) {
	pref := []string{"climate", "policy"}
	skill := []string{"kubernetes"}

	ranked := Baseline(Prefilter(threeJobs(), skill, pref, 0), true, 0)

	if ranked[0].ID != "2" {
		t.Fatalf("expected job 2 first, got %s", ranked[0].ID)
	}
	if ranked[0].Scores.Overall != ranked[0].Scores.Preference || ranked[0].Scores.Preference != 40 {
		t.Fatalf("unexpected scores: %+v", ranked[0].Scores)
	}
	for _, job := range ranked {
		if job.Scores.Skill != 0 {
			t.Fatalf("expected no skill overlap, got %+v", job.Scores)
		}
		if job.Reasons.Preference != BaselineReason || job.Reasons.Skill != BaselineReason {
			t.Fatalf("unexpected reasons: %+v", job.Reasons)
		}
	}
}

func TestBaselineOverallFallsBackToSkill(t *testing.T) {
	ranked := Baseline(Prefilter(threeJobs(), []string{"chef", "cooking"}, nil, 0), false, 1)
	if len(ranked) != 1 || ranked[0].ID != "3" {
		t.Fatalf("unexpected ranking: %+v", ranked)
	}
	if ranked[0].Scores.Overall != ranked[0].Scores.Skill || ranked[0].Scores.Skill == 0 {
		t.Fatalf("expected overall to equal skill, got %+v", ranked[0].Scores)
	}
}
