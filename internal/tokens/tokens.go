// Package tokens turns profiles and job text into normalized token sets.
package tokens

import (
	"strings"
	"unicode"

	"github.com/spigell/skillmatch/internal/profile"
)

const (
	// DefaultSkillCap bounds the skill token set.
	DefaultSkillCap = 200
	// DefaultPreferenceCap bounds the preference token set.
	DefaultPreferenceCap = 120

	minTokenRunes = 2
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "but": true, "by": true, "can": true, "do": true,
	"for": true, "from": true, "has": true, "have": true, "he": true, "her": true,
	"his": true, "i": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "me": true, "more": true, "my": true, "no": true, "not": true,
	"of": true, "on": true, "or": true, "our": true, "she": true, "so": true,
	"such": true, "than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true, "to": true,
	"up": true, "us": true, "was": true, "we": true, "were": true, "what": true,
	"when": true, "which": true, "who": true, "will": true, "with": true, "would": true,
	"you": true, "your": true, "also": true, "about": true, "all": true, "any": true,
	"each": true, "other": true, "some": true, "using": true, "use": true, "used": true,
	"via": true, "etc": true, "e.g": true, "i.e": true,
}

// Tokenize lower-cases text and splits it on anything that is not a letter, digit,
// '+', '#', '.' or '-'. Trailing dots and edge dashes are trimmed, stop words and
// one-rune tokens are dropped, and the result is deduplicated in order.
func Tokenize(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	var word strings.Builder

	flush := func() {
		w := strings.Trim(strings.TrimRight(word.String(), "."), "-")
		word.Reset()
		if len([]rune(w)) < minTokenRunes || stopWords[w] {
			return
		}
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '-' {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return out
}

// Set is a token set.
type Set map[string]struct{}

// NewSet builds a set from tokens.
func NewSet(tokens []string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// SkillTokens collects capability evidence: skills, projects, artifacts and keywords.
func SkillTokens(p *profile.Profile, artifacts []profile.Artifact, limit int) []string {
	if limit <= 0 {
		limit = DefaultSkillCap
	}

	var texts []string
	if p != nil {
		for _, skill := range p.Skills {
			texts = append(texts, skill.Name, string(skill.Level))
		}
		for _, project := range p.Projects {
			texts = append(texts, project.Title, project.Summary)
			texts = append(texts, project.Methods...)
			texts = append(texts, project.TechStack...)
			texts = append(texts, project.Outcomes...)
		}
	}
	for _, artifact := range artifacts {
		texts = append(texts, artifact.Title, string(artifact.Type), artifact.TextExcerpt)
	}
	if p != nil {
		texts = append(texts, p.Keywords...)
	}

	return collect(texts, limit)
}

// PreferenceTokens collects goal and context signals: about, interests and every preference field.
func PreferenceTokens(p *profile.Profile, limit int) []string {
	if limit <= 0 {
		limit = DefaultPreferenceCap
	}
	if p == nil {
		return []string{}
	}

	prefs := p.Preferences
	texts := []string{p.About}
	texts = append(texts, p.Interests...)
	texts = append(texts, prefs.Summary)
	for _, list := range [][]string{
		prefs.Goals, prefs.Interests, prefs.Industries, prefs.RoleTypes,
		prefs.Locations, prefs.WorkModes, prefs.CompanySize, prefs.Constraints,
	} {
		texts = append(texts, list...)
	}

	return collect(texts, limit)
}

func collect(texts []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, text := range texts {
		for _, token := range Tokenize(text) {
			if _, ok := seen[token]; ok {
				continue
			}
			if len(out) >= limit {
				return out
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}
	return out
}
