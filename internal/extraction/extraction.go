// Package extraction asks the completion capability for the skills, projects and
// preferences found in one artifact and normalizes the answer.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/chunker"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/profile"
	"github.com/spigell/skillmatch/internal/utils"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

var (
	//go:embed resume_prompt.md
	resumePrompt string
	//go:embed paper_prompt.md
	paperPrompt string
	//go:embed resume_schema.json
	resumeSchemaSource string
	//go:embed paper_schema.json
	paperSchemaSource string

	resumeSchema = ai.MustSchema(resumeSchemaSource)
	paperSchema  = ai.MustSchema(paperSchemaSource)
)

const defaultMaxLogLength = 200

// Status tags an extraction result.
type Status string

const (
	// Parsed means the capability answered with a conforming object.
	Parsed Status = "parsed"
	// Malformed means there is nothing usable: no capability, a failed call or a non-conforming answer.
	Malformed Status = "malformed"
)

// Result is the outcome of one extraction. Extracted is empty unless Status is Parsed.
type Result struct {
	Status    Status
	Extracted profile.Extracted
	Reason    string
}

// Input is one artifact with its chunks.
type Input struct {
	Artifact profile.Artifact
	About    string
	Chunks   []chunker.Chunk
}

type payload struct {
	ArtifactID   string   `json:"artifactId"`
	ArtifactType string   `json:"artifactType"`
	Title        string   `json:"title"`
	About        string   `json:"about,omitempty"`
	Chunks       []string `json:"chunks"`
}

// Adapter runs extractions against a Completer. A nil completer is valid and yields Malformed results.
type Adapter struct {
	completer ai.Completer
	logger    *zap.Logger
	maxLogLen int
}

func NewAdapter(completer ai.Completer, maxLogLength int, log *zap.Logger) *Adapter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Adapter{
		completer: completer,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}
}

// Enabled reports whether a capability is configured.
func (a *Adapter) Enabled() bool {
	return a != nil && a.completer != nil
}

// Extract never returns an error: every failure degrades to an empty Malformed result.
func (a *Adapter) Extract(ctx context.Context, in Input) Result {
	log := a.logger.With(logger.ArtifactFields(in.Artifact.ID, string(in.Artifact.Type))...)

	if !a.Enabled() {
		return malformed("capability is not configured")
	}
	if len(in.Chunks) == 0 {
		log.Warn("artifact has no text to extract from")
		return malformed("no chunks")
	}

	system, schema := resumePrompt, resumeSchema
	if in.Artifact.Type != profile.ArtifactResume {
		system, schema = paperPrompt, paperSchema
	}

	req := payload{
		ArtifactID:   in.Artifact.ID,
		ArtifactType: string(in.Artifact.Type),
		Title:        in.Artifact.Title,
		About:        in.About,
		Chunks:       make([]string, 0, len(in.Chunks)),
	}
	for _, chunk := range in.Chunks {
		req.Chunks = append(req.Chunks, chunk.Text)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return malformed(fmt.Sprintf("marshal payload: %s", err))
	}

	log.Debug("extraction request",
		zap.Int("chunks", len(req.Chunks)),
		zap.Int("payload_length", utf8.RuneCount(body)),
	)

	raw, err := a.completer.Complete(ctx, system, string(body))
	if err != nil {
		log.Warn("extraction call failed", zap.Error(err))
		return malformed(err.Error())
	}

	log.Debug("extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	extracted, err := Parse(raw, in.Artifact, schema)
	if err != nil {
		log.Warn("extraction response rejected", zap.Error(err))
		return malformed(err.Error())
	}

	log.Info("extraction parsed",
		zap.Int("skills", len(extracted.Skills)),
		zap.Int("projects", len(extracted.Projects)),
		zap.Int("keywords", len(extracted.Keywords)),
	)

	return Result{Status: Parsed, Extracted: extracted}
}

func malformed(reason string) Result {
	return Result{Status: Malformed, Reason: reason}
}

type wireEvidence struct {
	ArtifactID string `mapstructure:"artifactId"`
	Snippet    string `mapstructure:"snippet"`
}

type wireSkill struct {
	Name     string         `mapstructure:"name"`
	Level    string         `mapstructure:"level"`
	Evidence []wireEvidence `mapstructure:"evidence"`
}

type wireProject struct {
	Title     string         `mapstructure:"title"`
	Summary   string         `mapstructure:"summary"`
	Role      string         `mapstructure:"role"`
	Venue     string         `mapstructure:"venue"`
	Year      string         `mapstructure:"year"`
	Methods   []string       `mapstructure:"methods"`
	TechStack []string       `mapstructure:"techStack"`
	Outcomes  []string       `mapstructure:"outcomes"`
	Links     any            `mapstructure:"links"`
	Evidence  []wireEvidence `mapstructure:"evidence"`
}

type wirePreferences struct {
	Summary     string   `mapstructure:"summary"`
	Goals       []string `mapstructure:"goals"`
	Interests   []string `mapstructure:"interests"`
	Industries  []string `mapstructure:"industries"`
	RoleTypes   []string `mapstructure:"roleTypes"`
	Locations   []string `mapstructure:"locations"`
	WorkModes   []string `mapstructure:"workModes"`
	CompanySize []string `mapstructure:"companySize"`
	Constraints []string `mapstructure:"constraints"`
}

type wireSeed struct {
	About       string           `mapstructure:"about"`
	Interests   []string         `mapstructure:"interests"`
	Preferences *wirePreferences `mapstructure:"preferences"`
}

type wireResponse struct {
	Profile  *wireSeed     `mapstructure:"profile"`
	Skills   []wireSkill   `mapstructure:"skills"`
	Projects []wireProject `mapstructure:"projects"`
	Keywords []string      `mapstructure:"keywords"`
}

// Parse validates raw against schema, decodes it loosely and keeps only what is backed
// by evidence from artifact.
func Parse(raw string, artifact profile.Artifact, schema *gojsonschema.Schema) (profile.Extracted, error) {
	data, err := ai.ParseObject(raw, schema)
	if err != nil {
		return profile.Extracted{}, err
	}

	var resp wireResponse
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return profile.Extracted{}, err
	}
	if err := decoder.Decode(data); err != nil {
		return profile.Extracted{}, fmt.Errorf("decode response: %w", err)
	}

	out := profile.Extracted{
		Skills:   make([]profile.Skill, 0, len(resp.Skills)),
		Projects: make([]profile.Project, 0, len(resp.Projects)),
		Keywords: cleanList(resp.Keywords),
	}

	for _, skill := range resp.Skills {
		name := strings.TrimSpace(skill.Name)
		evidence := ownEvidence(skill.Evidence, artifact.ID)
		if name == "" || len(evidence) == 0 {
			continue
		}
		out.Skills = append(out.Skills, profile.Skill{
			Name:     name,
			Level:    profile.ParseLevel(skill.Level),
			Evidence: evidence,
		})
	}

	for _, project := range resp.Projects {
		title := strings.TrimSpace(project.Title)
		evidence := ownEvidence(project.Evidence, artifact.ID)
		if title == "" || len(evidence) == 0 {
			continue
		}
		out.Projects = append(out.Projects, profile.Project{
			Title:     title,
			Summary:   strings.TrimSpace(project.Summary),
			Role:      strings.TrimSpace(project.Role),
			Venue:     strings.TrimSpace(project.Venue),
			Year:      strings.TrimSpace(project.Year),
			Methods:   cleanList(project.Methods),
			TechStack: cleanList(project.TechStack),
			Outcomes:  cleanList(project.Outcomes),
			Links:     links(project.Links),
			Evidence:  evidence,
		})
	}

	if artifact.Type == profile.ArtifactResume && resp.Profile != nil {
		seed := &profile.Seed{
			About:     strings.TrimSpace(resp.Profile.About),
			Interests: cleanList(resp.Profile.Interests),
		}
		if prefs := resp.Profile.Preferences; prefs != nil {
			seed.Preferences = profile.Preferences{
				Summary:     strings.TrimSpace(prefs.Summary),
				Goals:       cleanList(prefs.Goals),
				Interests:   cleanList(prefs.Interests),
				Industries:  cleanList(prefs.Industries),
				RoleTypes:   cleanList(prefs.RoleTypes),
				Locations:   cleanList(prefs.Locations),
				WorkModes:   cleanList(prefs.WorkModes),
				CompanySize: cleanList(prefs.CompanySize),
				Constraints: cleanList(prefs.Constraints),
			}
		}
		out.Seed = seed
	}

	return out, nil
}

// ownEvidence keeps the entries that point at artifactID. A missing id is read as this artifact,
// since the snippet was quoted from its chunks.
func ownEvidence(entries []wireEvidence, artifactID string) []profile.EvidenceSnippet {
	incoming := make([]profile.EvidenceSnippet, 0, len(entries))
	for _, entry := range entries {
		id := strings.TrimSpace(entry.ArtifactID)
		if id == "" {
			id = artifactID
		}
		if id != artifactID {
			continue
		}
		incoming = append(incoming, profile.EvidenceSnippet{ArtifactID: id, Snippet: entry.Snippet})
	}
	return profile.MergeEvidence(nil, incoming, profile.MaxEvidence)
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func links(v any) map[string]string {
	out := make(map[string]string)
	switch typed := v.(type) {
	case map[string]any:
		for key, value := range typed {
			if s := ai.CoerceString(value); s != "" {
				out[key] = s
			}
		}
	case []any:
		for idx, value := range typed {
			if s := ai.CoerceString(value); s != "" {
				out[strconv.Itoa(idx+1)] = s
			}
		}
	}
	return out
}
