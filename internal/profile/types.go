// Package profile holds the skill profile model and the rules for folding
// extraction results into it.
package profile

import "strings"

// ArtifactType distinguishes the primary document from secondary ones.
type ArtifactType string

const (
	ArtifactResume ArtifactType = "resume"
	ArtifactPaper  ArtifactType = "paper"
)

// ResumeID is reserved for the first resume of a build.
const ResumeID = "a1"

const (
	// MaxSnippetRunes bounds a single evidence snippet.
	MaxSnippetRunes = 240
	// MaxEvidence bounds the evidence attached to one skill.
	MaxEvidence = 3
	// DefaultMaxSkills bounds the merged skill list.
	DefaultMaxSkills = 80
)

// Artifact is one uploaded document.
type Artifact struct {
	ID          string       `json:"id"`
	Type        ArtifactType `json:"type"`
	Title       string       `json:"title"`
	SourceURL   string       `json:"sourceUrl,omitempty"`
	TextExcerpt string       `json:"textExcerpt"`
}

// EvidenceSnippet ties a claim to the artifact it was read from.
type EvidenceSnippet struct {
	ArtifactID string `json:"artifactId" mapstructure:"artifactId"`
	Snippet    string `json:"snippet" mapstructure:"snippet"`
}

// Level is a skill proficiency level.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Rank orders levels; unknown levels rank with beginner.
func (l Level) Rank() int {
	switch l {
	case LevelAdvanced:
		return 2
	case LevelIntermediate:
		return 1
	default:
		return 0
	}
}

// ParseLevel normalizes free-form level text. Unknown values become beginner.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "advanced", "expert":
		return LevelAdvanced
	case "intermediate":
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// Skill is a named capability backed by evidence.
type Skill struct {
	Name     string            `json:"name"`
	Level    Level             `json:"level"`
	Evidence []EvidenceSnippet `json:"evidence"`
}

// Key is the case-insensitive identity of the skill.
func (s Skill) Key() string {
	return NormalizeName(s.Name)
}

// NormalizeName is the identity key for skill names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Project is a piece of work described in a document. Projects are never deduplicated.
type Project struct {
	Title     string            `json:"title"`
	Summary   string            `json:"summary"`
	Role      string            `json:"role,omitempty"`
	Venue     string            `json:"venue,omitempty"`
	Year      string            `json:"year,omitempty"`
	Methods   []string          `json:"methods"`
	TechStack []string          `json:"techStack"`
	Outcomes  []string          `json:"outcomes"`
	Links     map[string]string `json:"links"`
	Evidence  []EvidenceSnippet `json:"evidence"`
}

// Preferences describes what the person is looking for.
type Preferences struct {
	Summary     string   `json:"summary"`
	Goals       []string `json:"goals"`
	Interests   []string `json:"interests"`
	Industries  []string `json:"industries"`
	RoleTypes   []string `json:"roleTypes"`
	Locations   []string `json:"locations"`
	WorkModes   []string `json:"workModes"`
	CompanySize []string `json:"companySize"`
	Constraints []string `json:"constraints"`
}

// Overrides are user-supplied preferences that win over inferred ones.
type Overrides struct {
	Locations []string `json:"locations,omitempty"`
	WorkModes []string `json:"workModes,omitempty"`
}

// IsEmpty reports whether no override is set.
func (o Overrides) IsEmpty() bool {
	return len(o.Locations) == 0 && len(o.WorkModes) == 0
}

// Profile is the synthesized representation of a person.
type Profile struct {
	About       string      `json:"about"`
	Interests   []string    `json:"interests"`
	Preferences Preferences `json:"preferences"`
	Skills      []Skill     `json:"skills"`
	Projects    []Project   `json:"projects"`
	Keywords    []string    `json:"keywords"`
}

// New returns a profile with every list initialized so it encodes as [] rather than null.
func New() *Profile {
	return &Profile{
		Interests: []string{},
		Preferences: Preferences{
			Goals:       []string{},
			Interests:   []string{},
			Industries:  []string{},
			RoleTypes:   []string{},
			Locations:   []string{},
			WorkModes:   []string{},
			CompanySize: []string{},
			Constraints: []string{},
		},
		Skills:   []Skill{},
		Projects: []Project{},
		Keywords: []string{},
	}
}
