package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/extraction"
	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/profile"
	"github.com/spigell/skillmatch/internal/ranking"
	"github.com/spigell/skillmatch/internal/store"
)

type plainText struct{}

func (plainText) Extract(name, _ string, data []byte) (string, error) {
	if strings.HasPrefix(name, "broken") {
		return "", errors.New("unreadable")
	}
	return string(data), nil
}

type stubExtractor struct {
	mu      sync.Mutex
	results map[string]profile.Extracted
	delays  map[string]time.Duration
	inputs  map[string]extraction.Input
}

func (s *stubExtractor) Extract(_ context.Context, in extraction.Input) extraction.Result {
	time.Sleep(s.delays[in.Artifact.ID])

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputs == nil {
		s.inputs = map[string]extraction.Input{}
	}
	s.inputs[in.Artifact.ID] = in

	extracted, ok := s.results[in.Artifact.ID]
	if !ok {
		return extraction.Result{Status: extraction.Malformed}
	}
	return extraction.Result{Status: extraction.Parsed, Extracted: extracted}
}

func longText(topic string) []byte {
	return []byte(strings.Repeat("This paragraph describes work on "+topic+" in some detail. ", 10))
}

func skill(name string, level profile.Level, artifact, snippet string) profile.Skill {
	return profile.Skill{Name: name, Level: level, Evidence: []profile.EvidenceSnippet{{ArtifactID: artifact, Snippet: snippet}}}
}

func TestBuildWithoutDocuments(t *testing.T) {
	st := store.NewMemory()
	b := NewBuilder(BuildConfig{}, plainText{}, &stubExtractor{}, st, nil)

	if _, err := b.Build(context.Background(), BuildRequest{About: "hello"}); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if _, err := st.Load(context.Background(), store.DefaultSession); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("nothing must be stored, got %v", err)
	}
}

func TestBuildTwoPapersPython(t *testing.T) {
	extractor := &stubExtractor{
		results: map[string]profile.Extracted{
			"p1": {Skills: []profile.Skill{skill("Python", profile.LevelBeginner, "p1", "scripts in Python")}},
			"p2": {Skills: []profile.Skill{skill("python", profile.LevelAdvanced, "p2", "a Python library")}},
		},
		// p2 finishes first; the fold must still follow artifact order.
		delays: map[string]time.Duration{"p1": 30 * time.Millisecond},
	}
	st := store.NewMemory()
	b := NewBuilder(BuildConfig{}, plainText{}, extractor, st, nil)

	res, err := b.Build(context.Background(), BuildRequest{
		Session: "s1",
		Papers: []Document{
			{Name: "first.txt", Data: longText("python scripting")},
			{Name: "second.txt", Data: longText("python libraries")},
		},
		About:     "  Researcher  ",
		Overrides: profile.Overrides{Locations: []string{"Remote"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Profile.Skills) != 1 {
		t.Fatalf("expected one skill, got %+v", res.Profile.Skills)
	}
	python := res.Profile.Skills[0]
	if python.Key() != "python" || python.Level != profile.LevelAdvanced {
		t.Fatalf("unexpected skill: %+v", python)
	}
	if len(python.Evidence) != 2 || python.Evidence[0].ArtifactID != "p1" || python.Evidence[1].ArtifactID != "p2" {
		t.Fatalf("expected evidence from p1 then p2, got %+v", python.Evidence)
	}

	if res.Artifacts[0].ID != "p1" || res.Artifacts[1].ID != "p2" || res.Artifacts[0].Title != "first" {
		t.Fatalf("unexpected artifacts: %+v", res.Artifacts)
	}
	if n := len([]rune(res.Artifacts[0].TextExcerpt)); n != ExcerptRunes {
		t.Fatalf("expected excerpt of %d runes, got %d", ExcerptRunes, n)
	}
	if res.Profile.About != "Researcher" {
		t.Fatalf("expected user about as fallback, got %q", res.Profile.About)
	}
	if res.Profile.Preferences.Locations[0] != "Remote" {
		t.Fatalf("expected override location, got %v", res.Profile.Preferences.Locations)
	}
	if extractor.inputs["p1"].About != "" || len(extractor.inputs["p1"].Chunks) == 0 {
		t.Fatalf("unexpected extraction input: %+v", extractor.inputs["p1"])
	}

	saved, err := st.Load(context.Background(), "s1")
	if err != nil || saved.Profile != res.Profile {
		t.Fatalf("expected saved profile, got %+v, %v", saved, err)
	}
}

func TestBuildSurvivesUnreadableDocument(t *testing.T) {
	extractor := &stubExtractor{results: map[string]profile.Extracted{
		"a1": {
			Seed:   &profile.Seed{About: "Engineer", Preferences: profile.Preferences{WorkModes: []string{"hybrid"}}},
			Skills: []profile.Skill{skill("Go", profile.LevelIntermediate, "a1", "Go services")},
		},
	}}
	b := NewBuilder(BuildConfig{Concurrency: 1}, plainText{}, extractor, store.NewMemory(), nil)

	res, err := b.Build(context.Background(), BuildRequest{
		Resume: &Document{Name: "cv.txt", Data: longText("go services")},
		Papers: []Document{{Name: "broken.pdf", Data: []byte("%PDF")}},
		About:  "ignored when extraction has one",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Parsed != 1 || res.Malformed != 1 {
		t.Fatalf("expected 1 parsed and 1 malformed, got %d/%d", res.Parsed, res.Malformed)
	}
	if res.Artifacts[0].ID != profile.ResumeID || res.Artifacts[1].TextExcerpt != "" {
		t.Fatalf("unexpected artifacts: %+v", res.Artifacts)
	}
	if len(extractor.inputs["p1"].Chunks) != 0 {
		t.Fatalf("unreadable document must not produce chunks")
	}
	if extractor.inputs["a1"].About != "ignored when extraction has one" || extractor.inputs["p1"].About != "" {
		t.Fatalf("about must reach the resume extraction only: a1=%q p1=%q", extractor.inputs["a1"].About, extractor.inputs["p1"].About)
	}
	if res.Profile.About != "Engineer" || res.Profile.Preferences.WorkModes[0] != "hybrid" {
		t.Fatalf("unexpected profile: %+v", res.Profile)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(BuildConfig{}, plainText{}, &stubExtractor{}, store.NewMemory(), nil)
	if _, err := b.Build(ctx, BuildRequest{Resume: &Document{Name: "cv.txt", Data: longText("go")}}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func threeJobs() *catalog.Jobs {
	return &catalog.Jobs{Items: []*catalog.Job{
		{ID: "1", Title: "Accountant", Company: "Ledger", Location: "Paris", Keywords: []string{"finance"}},
		{ID: "2", Title: "Analyst", Company: "Terra", Location: "Oslo", Keywords: []string{"climate", "policy"}},
		{ID: "3", Title: "Chef", Company: "Bistro", Location: "Rome", Keywords: []string{"cooking"}},
	}}
}

func TestRecommendBeforeBuild(t *testing.T) {
	r := NewRecommender(store.NewMemory(), threeJobs(), nil, ranking.NewRanker(ranking.Config{}, nil, nil), nil)

	if _, err := r.Recommend(context.Background(), RecommendRequest{Session: "new"}); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestRecommendPreferenceScenario(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	p := profile.New()
	p.Preferences.Interests = []string{"climate", "policy"}
	p.Skills = []profile.Skill{skill("Kubernetes", profile.LevelAdvanced, "a1", "k8s")}
	if err := st.Save(ctx, &store.Snapshot{Session: store.DefaultSession, Profile: p}); err != nil {
		t.Fatal(err)
	}

	filters := filtering.New([]filtering.Filter{filtering.NewExcludedCompanies([]string{"Bistro"})}, nil)
	r := NewRecommender(st, threeJobs(), filters, ranking.NewRanker(ranking.Config{}, nil, nil), nil)

	got, err := r.Recommend(ctx, RecommendRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.CatalogSize != 3 {
		t.Fatalf("expected catalog size 3, got %d", got.CatalogSize)
	}
	if len(got.Jobs) != 2 || got.Jobs[0].ID != "2" {
		t.Fatalf("expected job 2 first and the excluded company dropped, got %+v", got.Jobs)
	}
	if got.Jobs[0].Scores.Overall != got.Jobs[0].Scores.Preference {
		t.Fatalf("expected overall from preference, got %+v", got.Jobs[0].Scores)
	}
	if strings.Join(got.PreferenceTokens, ",") != "climate,policy" {
		t.Fatalf("unexpected preference tokens: %v", got.PreferenceTokens)
	}
	for _, token := range got.SkillTokens {
		if token == "climate" || token == "policy" {
			t.Fatalf("skill and preference tokens must stay apart: %v", got.SkillTokens)
		}
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "5", want: 5},
		{in: " ALL ", want: ranking.All},
		{in: "-1", want: ranking.All},
		{in: "0", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "many", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseLimit(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidLimit) {
				t.Fatalf("%q: expected ErrInvalidLimit, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %d, got %d (%v)", tc.in, tc.want, got, err)
		}
	}
}
