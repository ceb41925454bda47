package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/ai/gemini"
	"github.com/spigell/skillmatch/internal/ai/openai"
	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/extraction"
	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/pipeline"
	"github.com/spigell/skillmatch/internal/ranking"
	"github.com/spigell/skillmatch/internal/secrets"
	"github.com/spigell/skillmatch/internal/store"
	"github.com/spigell/skillmatch/internal/textextract"
)

// deps holds everything a command needs.
type deps struct {
	config      *Config
	logger      *zap.Logger
	store       *store.Layered
	builder     *pipeline.Builder
	recommender *pipeline.Recommender
}

func (d *deps) close() {
	if err := d.store.Close(); err != nil {
		d.logger.Warn("closing snapshot store", zap.Error(err))
	}
	_ = d.logger.Sync()
}

// setup builds the logger, reads the config and wires the pipeline. Any failure is fatal.
func setup(ctx context.Context, withCatalog bool) *deps {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}
	fillConfig(config)

	logger.Info("starting the skillmatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Snapshot.Backend == store.BackendS3 && config.Snapshot.S3.AccessKeyID != "" {
		secret, err := secrets.Load(secrets.Source{
			Name: "s3 secret access key",
			File: viper.GetString("snapshot.s3.secret-access-key-file"),
			Env:  "AWS_SECRET_ACCESS_KEY",
		})
		if err != nil {
			logger.Fatal("loading s3 credentials", zap.Error(err))
		}
		config.Snapshot.S3.SecretAccessKey = secret
	}

	d, err := newDeps(ctx, config, logger, withCatalog)
	if err != nil {
		logger.Fatal("wiring the pipeline", zap.Error(err))
	}
	return d
}

// newDeps wires the pipeline for an already read config.
func newDeps(ctx context.Context, config *Config, logger *zap.Logger, withCatalog bool) (*deps, error) {
	st, err := store.Open(ctx, config.Snapshot, logger)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("ai is disabled, falling back to lexical ranking", zap.Error(err))
		completer = nil
	}

	builder := pipeline.NewBuilder(pipeline.BuildConfig{
		Resume:            config.Chunking.Resume,
		Paper:             config.Chunking.Paper,
		MaxSkills:         config.Profile.MaxSkills,
		Concurrency:       config.AI.Concurrency,
		RequestsPerMinute: config.AI.RequestsPerMinute,
	}, textextract.New(), extraction.NewAdapter(completer, config.AI.MaxLogLength, logger), st, logger)

	var jobs *catalog.Jobs
	if withCatalog {
		jobs = catalog.NewLoader(logger).Load(ctx, config.Catalog.Source)
	}

	ranker := ranking.NewRanker(config.Ranking, newReranker(completer, config.AI.MaxLogLength, logger), logger)
	recommender := pipeline.NewRecommender(st, jobs, prepareFilters(config.Filters, logger), ranker, logger)

	return &deps{
		config:      config,
		logger:      logger,
		store:       st,
		builder:     builder,
		recommender: recommender,
	}, nil
}

// fillConfig replaces absent sections so callers never check for nil.
func fillConfig(config *Config) {
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Chunking == nil {
		config.Chunking = &ChunkingConfig{}
	}
	if config.Profile == nil {
		config.Profile = &ProfileConfig{}
	}
	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if strings.TrimSpace(config.Session) == "" {
		config.Session = store.DefaultSession
	}
}

// newCompleter returns a nil Completer when ai is disabled.
func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	var (
		provider     ai.ModelCompleter
		defaultModel string
		err          error
	)

	switch name := strings.TrimSpace(strings.ToLower(cfg.Provider)); name {
	case "", "gemini":
		apiKey, keyErr := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if keyErr != nil {
			return nil, fmt.Errorf("%w (set ai.api-key-file or GEMINI_API_KEY)", keyErr)
		}
		provider, err = gemini.NewGenerator(ctx, apiKey)
		defaultModel = gemini.DefaultModel
	case "openai":
		apiKey, keyErr := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: cfg.APIKeyFile,
			Env:  "OPENAI_API_KEY",
		})
		if keyErr != nil {
			return nil, fmt.Errorf("%w (set ai.api-key-file or OPENAI_API_KEY)", keyErr)
		}
		provider, err = openai.NewGenerator(apiKey, cfg.BaseURL)
		defaultModel = openai.DefaultModel
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	models := cfg.Models
	if len(models) == 0 {
		models = []string{defaultModel}
	}

	chain, err := ai.NewChain(provider, models, cfg.Timeout, cfg.MaxLogLength, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("ai enabled", zap.String("provider", chain.Provider()), zap.Strings("models", models))
	return chain, nil
}

func newReranker(completer ai.Completer, maxLogLength int, logger *zap.Logger) *ranking.Reranker {
	if completer == nil {
		return nil
	}
	return ranking.NewReranker(completer, maxLogLength, logger)
}

func prepareFilters(cfg *FiltersConfig, logger *zap.Logger) *filtering.Filtering {
	steps := []filtering.Filter{
		filtering.NewExcludedCompanies(cfg.ExcludeCompanies),
		filtering.NewDismissedFile(cfg.DismissedFile),
	}

	filters := filtering.New(steps, logger)
	if len(cfg.ExcludeCompanies) == 0 {
		filters.DisableByName("companies", "no companies configured")
	}
	if strings.TrimSpace(cfg.DismissedFile) == "" {
		filters.DisableByName("dismissed_file", "filters.dismissed-file is not set")
	}

	for _, status := range filters.Describe() {
		logger.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	return filters
}
