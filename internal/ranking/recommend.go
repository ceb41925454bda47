package ranking

import (
	"context"

	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/profile"
	"go.uber.org/zap"
)

const (
	DefaultShortlist    = 40
	DefaultSemanticHead = 25
	DefaultLimit        = 10

	// All requests every catalog job.
	All = -1
)

// Config bounds the two ranking stages.
type Config struct {
	Shortlist    int `mapstructure:"shortlist"`
	SemanticHead int `mapstructure:"semantic-head"`
	DefaultLimit int `mapstructure:"default-limit"`
}

func (c Config) withDefaults() Config {
	if c.Shortlist <= 0 {
		c.Shortlist = DefaultShortlist
	}
	if c.SemanticHead <= 0 {
		c.SemanticHead = DefaultSemanticHead
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	return c
}

// Request is one ranking run. Limit 0 means the configured default, All means every job.
type Request struct {
	Profile          *profile.Profile
	SkillTokens      []string
	PreferenceTokens []string
	Jobs             *catalog.Jobs
	Limit            int
}

// Ranker combines the prefilter, the reranker and the baseline fallback.
type Ranker struct {
	cfg      Config
	reranker *Reranker
	logger   *zap.Logger
}

// NewRanker accepts a nil reranker; ranking then uses the lexical baseline only.
func NewRanker(cfg Config, reranker *Reranker, log *zap.Logger) *Ranker {
	return &Ranker{
		cfg:      cfg.withDefaults(),
		reranker: reranker,
		logger:   logger.OrNop(log),
	}
}

func (r *Ranker) Rank(ctx context.Context, req Request) []RankedJob {
	limit := req.Limit
	if limit == 0 {
		limit = r.cfg.DefaultLimit
	}
	hasPreference := len(req.PreferenceTokens) > 0

	if limit < 0 {
		return r.rankAll(ctx, req, hasPreference)
	}

	shortlist := Prefilter(req.Jobs, req.SkillTokens, req.PreferenceTokens, r.cfg.Shortlist)
	r.logger.Debug("lexical shortlist", zap.Int("catalog", req.Jobs.Len()), zap.Int("shortlist", len(shortlist)))

	return r.semantic(ctx, req, shortlist, limit, hasPreference)
}

// rankAll reranks only the head of the lexical order and appends every other job with
// baseline scores in lexical order.
func (r *Ranker) rankAll(ctx context.Context, req Request, hasPreference bool) []RankedJob {
	ordered := Prefilter(req.Jobs, req.SkillTokens, req.PreferenceTokens, 0)

	head := ordered
	if len(head) > r.cfg.SemanticHead {
		head = head[:r.cfg.SemanticHead]
	}

	// Jobs outside the head that the capability names are kept, so the limit is the whole order.
	ranked := r.semantic(ctx, req, head, len(ordered), hasPreference)

	returned := make(map[string]struct{}, len(ranked))
	for _, job := range ranked {
		returned[job.ID] = struct{}{}
	}
	for _, c := range ordered {
		if _, ok := returned[c.Job.ID]; ok {
			continue
		}
		ranked = append(ranked, baselineJob(c, hasPreference))
	}

	return ranked
}

func (r *Ranker) semantic(ctx context.Context, req Request, candidates []Candidate, limit int, hasPreference bool) []RankedJob {
	if !r.reranker.Enabled() || len(candidates) == 0 {
		return Baseline(candidates, hasPreference, limit)
	}

	ranked, err := r.reranker.Rerank(ctx, req.Profile, candidates, req.Jobs, limit)
	if err != nil {
		r.logger.Warn("semantic rerank failed, using lexical baseline", zap.Error(err))
		return Baseline(candidates, hasPreference, limit)
	}

	r.logger.Info("semantic rerank", zap.Int("candidates", len(candidates)), zap.Int("ranked", len(ranked)))
	return ranked
}
