package profile

import (
	"reflect"
	"testing"
)

func TestAbsorbSeedOnlyFromResume(t *testing.T) {
	p := New()

	p.Absorb(Extracted{
		Seed: &Seed{
			About:     "Research engineer",
			Interests: []string{"compilers"},
			Preferences: Preferences{
				Summary:   "Infra roles",
				Locations: []string{"Berlin"},
				WorkModes: []string{"hybrid"},
			},
		},
		Skills:   []Skill{{Name: "Go", Level: LevelIntermediate, Evidence: []EvidenceSnippet{ev("a1", "Go services")}}},
		Keywords: []string{"Distributed Systems"},
	}, 0)

	p.Absorb(Extracted{
		Skills:   []Skill{{Name: "go", Level: LevelAdvanced, Evidence: []EvidenceSnippet{ev("p1", "Go runtime")}}},
		Projects: []Project{{Title: "GC tuning"}},
		Keywords: []string{"distributed systems", "garbage collection"},
	}, 0)

	if p.About != "Research engineer" {
		t.Fatalf("unexpected about: %q", p.About)
	}
	if p.Preferences.Summary != "Infra roles" {
		t.Fatalf("unexpected summary: %q", p.Preferences.Summary)
	}
	if len(p.Skills) != 1 || p.Skills[0].Level != LevelAdvanced {
		t.Fatalf("unexpected skills: %+v", p.Skills)
	}
	if len(p.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(p.Projects))
	}
	if want := []string{"distributed systems", "garbage collection"}; !reflect.DeepEqual(p.Keywords, want) {
		t.Fatalf("expected keywords %v, got %v", want, p.Keywords)
	}
}

func TestApplyOverridesTakePriority(t *testing.T) {
	p := New()
	p.Preferences.Locations = []string{"Munich", "berlin"}
	p.Preferences.WorkModes = []string{"onsite"}

	p.ApplyOverrides(Overrides{Locations: []string{"Berlin", "Remote"}, WorkModes: []string{"Remote"}})

	if want := []string{"Berlin", "Remote", "Munich"}; !reflect.DeepEqual(p.Preferences.Locations, want) {
		t.Fatalf("expected %v, got %v", want, p.Preferences.Locations)
	}
	if want := []string{"Remote", "onsite"}; !reflect.DeepEqual(p.Preferences.WorkModes, want) {
		t.Fatalf("expected %v, got %v", want, p.Preferences.WorkModes)
	}
}

func TestMergeKeywordsCap(t *testing.T) {
	got := MergeKeywords([]string{"A", "b"}, []string{"a", "c", "d"}, 3)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
