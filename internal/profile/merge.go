package profile

import (
	"github.com/spigell/skillmatch/internal/utils"
)

// MergeSkills folds incoming skills into base. Names are matched case-insensitively,
// levels only ever go up, evidence is deduplicated and capped at MaxEvidence, and the
// result holds at most maxSkills skills in insertion order. A non-positive maxSkills uses DefaultMaxSkills.
func MergeSkills(base, incoming []Skill, maxSkills int) []Skill {
	if maxSkills <= 0 {
		maxSkills = DefaultMaxSkills
	}

	merged := make([]Skill, 0, len(base)+len(incoming))
	index := make(map[string]int, len(base)+len(incoming))

	add := func(skill Skill) {
		key := skill.Key()
		if key == "" {
			return
		}

		pos, ok := index[key]
		if !ok {
			index[key] = len(merged)
			merged = append(merged, Skill{
				Name:     skill.Name,
				Level:    ParseLevel(string(skill.Level)),
				Evidence: MergeEvidence(nil, skill.Evidence, MaxEvidence),
			})
			return
		}

		current := &merged[pos]
		if ParseLevel(string(skill.Level)).Rank() > current.Level.Rank() {
			current.Level = ParseLevel(string(skill.Level))
		}
		current.Evidence = MergeEvidence(current.Evidence, skill.Evidence, MaxEvidence)
	}

	for _, skill := range base {
		add(skill)
	}
	for _, skill := range incoming {
		add(skill)
	}

	if len(merged) > maxSkills {
		merged = merged[:maxSkills]
	}
	return merged
}

// MergeEvidence concatenates current then incoming evidence, truncating snippets to
// MaxSnippetRunes before computing the (artifactId, snippet) identity, and keeps at most limit entries.
func MergeEvidence(current, incoming []EvidenceSnippet, limit int) []EvidenceSnippet {
	out := make([]EvidenceSnippet, 0, limit)
	seen := make(map[EvidenceSnippet]struct{}, limit)

	for _, list := range [][]EvidenceSnippet{current, incoming} {
		for _, ev := range list {
			if len(out) >= limit {
				return out
			}
			ev = NormalizeEvidence(ev)
			if ev.ArtifactID == "" || ev.Snippet == "" {
				continue
			}
			if _, ok := seen[ev]; ok {
				continue
			}
			seen[ev] = struct{}{}
			out = append(out, ev)
		}
	}
	return out
}

// NormalizeEvidence trims the artifact id and cuts the snippet to MaxSnippetRunes.
func NormalizeEvidence(ev EvidenceSnippet) EvidenceSnippet {
	return EvidenceSnippet{
		ArtifactID: utils.TruncateRunes(ev.ArtifactID, 64),
		Snippet:    utils.TruncateRunes(ev.Snippet, MaxSnippetRunes),
	}
}
