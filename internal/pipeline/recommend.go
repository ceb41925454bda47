package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/ranking"
	"github.com/spigell/skillmatch/internal/store"
	"github.com/spigell/skillmatch/internal/tokens"
	"go.uber.org/zap"
)

// ErrNoProfile is returned when a session asks for recommendations before building a profile.
var ErrNoProfile = errors.New("no profile has been built yet")

// ErrInvalidLimit is returned by ParseLimit.
var ErrInvalidLimit = errors.New("limit must be a positive number, -1 or \"all\"")

type RecommendRequest struct {
	Session string
	// Limit 0 means the configured default and ranking.All means every catalog job.
	Limit int
}

type Recommendation struct {
	SkillTokens      []string            `json:"skillTokens"`
	PreferenceTokens []string            `json:"preferenceTokens"`
	CatalogSize      int                 `json:"catalogSize"`
	Jobs             []ranking.RankedJob `json:"jobs"`
}

// Recommender ranks the catalog against a stored profile.
type Recommender struct {
	store   store.Store
	catalog *catalog.Jobs
	filters *filtering.Filtering
	ranker  *ranking.Ranker
	logger  *zap.Logger
}

// NewRecommender accepts nil filters.
func NewRecommender(st store.Store, jobs *catalog.Jobs, filters *filtering.Filtering, ranker *ranking.Ranker, log *zap.Logger) *Recommender {
	if jobs == nil {
		jobs = &catalog.Jobs{}
	}
	return &Recommender{
		store:   st,
		catalog: jobs,
		filters: filters,
		ranker:  ranker,
		logger:  logger.OrNop(log),
	}
}

// Catalog returns the loaded catalog.
func (r *Recommender) Catalog() *catalog.Jobs {
	return r.catalog
}

func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) (*Recommendation, error) {
	session := strings.TrimSpace(req.Session)
	if session == "" {
		session = store.DefaultSession
	}
	log := logger.WithSession(r.logger, session)

	snapshot, err := r.store.Load(ctx, session)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	skillTokens := tokens.SkillTokens(snapshot.Profile, snapshot.Artifacts, tokens.DefaultSkillCap)
	preferenceTokens := tokens.PreferenceTokens(snapshot.Profile, tokens.DefaultPreferenceCap)

	jobs := r.catalog
	if r.filters != nil {
		filtered, err := r.filters.Run(ctx, r.catalog)
		if err != nil {
			log.Warn("catalog filtering failed, ranking the full catalog", zap.Error(err))
		} else {
			jobs = filtered
		}
	}

	ranked := r.ranker.Rank(ctx, ranking.Request{
		Profile:          snapshot.Profile,
		SkillTokens:      skillTokens,
		PreferenceTokens: preferenceTokens,
		Jobs:             jobs,
		Limit:            req.Limit,
	})

	log.Info("recommendations ranked",
		zap.Int("catalog", r.catalog.Len()),
		zap.Int("candidates", jobs.Len()),
		zap.Int("returned", len(ranked)),
	)

	return &Recommendation{
		SkillTokens:      skillTokens,
		PreferenceTokens: preferenceTokens,
		CatalogSize:      r.catalog.Len(),
		Jobs:             ranked,
	}, nil
}

// ParseLimit reads a user-supplied limit: empty means the default, "all" or -1 means every job.
func ParseLimit(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return 0, nil
	case "all":
		return ranking.All, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n == 0 || n < ranking.All {
		return 0, ErrInvalidLimit
	}
	return n, nil
}
