package profile

import (
	"strings"

	"github.com/spigell/skillmatch/internal/utils"
)

// DefaultMaxKeywords bounds the merged keyword list.
const DefaultMaxKeywords = 200

// Seed is the part of a resume extraction that describes the person rather than their skills.
type Seed struct {
	About       string      `json:"about"`
	Interests   []string    `json:"interests"`
	Preferences Preferences `json:"preferences"`
}

// Extracted is what one artifact contributed.
type Extracted struct {
	Skills   []Skill
	Projects []Project
	Keywords []string
	Seed     *Seed
}

// Absorb folds one artifact's extraction into the profile. Only a seed fills in
// about, interests and preferences; papers contribute skills, projects and keywords.
func (p *Profile) Absorb(part Extracted, maxSkills int) {
	if part.Seed != nil {
		if about := strings.TrimSpace(part.Seed.About); about != "" {
			p.About = about
		}
		p.Interests = utils.UniqueFold(p.Interests, part.Seed.Interests)
		p.Preferences = mergePreferences(p.Preferences, part.Seed.Preferences)
	}

	p.Skills = MergeSkills(p.Skills, part.Skills, maxSkills)
	p.Projects = append(p.Projects, part.Projects...)
	p.Keywords = MergeKeywords(p.Keywords, part.Keywords, DefaultMaxKeywords)
}

// ApplyOverrides puts user-supplied values ahead of inferred ones, deduplicated case-insensitively.
func (p *Profile) ApplyOverrides(o Overrides) {
	p.Preferences.Locations = utils.UniqueFold(o.Locations, p.Preferences.Locations)
	p.Preferences.WorkModes = utils.UniqueFold(o.WorkModes, p.Preferences.WorkModes)
}

// MergeKeywords lower-cases, deduplicates and caps keywords.
func MergeKeywords(current, incoming []string, limit int) []string {
	out := make([]string, 0, len(current)+len(incoming))
	seen := make(map[string]struct{}, len(current)+len(incoming))
	for _, list := range [][]string{current, incoming} {
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			if limit > 0 && len(out) >= limit {
				return out
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

func mergePreferences(current, incoming Preferences) Preferences {
	summary := current.Summary
	if s := strings.TrimSpace(incoming.Summary); s != "" {
		summary = s
	}
	return Preferences{
		Summary:     summary,
		Goals:       utils.UniqueFold(current.Goals, incoming.Goals),
		Interests:   utils.UniqueFold(current.Interests, incoming.Interests),
		Industries:  utils.UniqueFold(current.Industries, incoming.Industries),
		RoleTypes:   utils.UniqueFold(current.RoleTypes, incoming.RoleTypes),
		Locations:   utils.UniqueFold(current.Locations, incoming.Locations),
		WorkModes:   utils.UniqueFold(current.WorkModes, incoming.WorkModes),
		CompanySize: utils.UniqueFold(current.CompanySize, incoming.CompanySize),
		Constraints: utils.UniqueFold(current.Constraints, incoming.Constraints),
	}
}
