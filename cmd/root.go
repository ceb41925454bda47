package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/skillmatch/internal/chunker"
	"github.com/spigell/skillmatch/internal/pipeline"
	"github.com/spigell/skillmatch/internal/ranking"
	"github.com/spigell/skillmatch/internal/server"
	"github.com/spigell/skillmatch/internal/store"
)

const (
	app       = "skillmatch"
	envPrefix = "SKILLMATCH"
)

type Config struct {
	AI       *AIConfig       `mapstructure:"ai"`
	Chunking *ChunkingConfig `mapstructure:"chunking"`
	Profile  *ProfileConfig  `mapstructure:"profile"`
	Ranking  ranking.Config  `mapstructure:"ranking"`
	Catalog  *CatalogConfig  `mapstructure:"catalog"`
	Filters  *FiltersConfig  `mapstructure:"filters"`
	Snapshot store.Config    `mapstructure:"snapshot"`
	Server   server.Config   `mapstructure:"server"`
	Session  string          `mapstructure:"session"`
}

type AIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Provider          string        `mapstructure:"provider"`
	Models            []string      `mapstructure:"models"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	BaseURL           string        `mapstructure:"base-url"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
}

type ChunkingConfig struct {
	Resume chunker.Config `mapstructure:"resume"`
	Paper  chunker.Config `mapstructure:"paper"`
}

type ProfileConfig struct {
	MaxSkills int `mapstructure:"max-skills"`
}

type CatalogConfig struct {
	// Source is a file path or an http(s) URL.
	Source string `mapstructure:"source"`
}

type FiltersConfig struct {
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	DismissedFile    string   `mapstructure:"dismissed-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillmatch builds a skill profile from a resume and papers and ranks a job catalog against it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skillmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("session", "", "session id the profile is stored under")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))

	setDefaults()
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults() {
	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.models", []string{})
	viper.SetDefault("ai.api-key-file", "")
	viper.SetDefault("ai.base-url", "")
	viper.SetDefault("ai.concurrency", pipeline.DefaultConcurrency)
	viper.SetDefault("ai.requests-per-minute", pipeline.DefaultRequestsPerMinute)
	viper.SetDefault("ai.timeout", "60s")
	viper.SetDefault("ai.max-log-length", 200)

	viper.SetDefault("chunking.resume.max-chunks", chunker.DefaultResumeConfig().MaxChunks)
	viper.SetDefault("chunking.resume.max-chars", chunker.DefaultResumeConfig().MaxChars)
	viper.SetDefault("chunking.paper.max-chunks", chunker.DefaultPaperConfig().MaxChunks)
	viper.SetDefault("chunking.paper.max-chars", chunker.DefaultPaperConfig().MaxChars)

	viper.SetDefault("ranking.shortlist", ranking.DefaultShortlist)
	viper.SetDefault("ranking.semantic-head", ranking.DefaultSemanticHead)
	viper.SetDefault("ranking.default-limit", ranking.DefaultLimit)

	viper.SetDefault("catalog.source", "jobs.json")
	viper.SetDefault("filters.exclude-companies", []string{})
	viper.SetDefault("filters.dismissed-file", "")

	// build and recommend run as separate processes, so the CLI keeps profiles on disk by default.
	viper.SetDefault("snapshot.enabled", true)
	viper.SetDefault("snapshot.backend", store.BackendFile)
	viper.SetDefault("snapshot.dir", ".skillmatch")
	viper.SetDefault("snapshot.sqlite-path", "skillmatch.db")
	viper.SetDefault("snapshot.s3.bucket", "")
	viper.SetDefault("snapshot.s3.region", "")
	viper.SetDefault("snapshot.s3.endpoint", "")
	viper.SetDefault("snapshot.s3.prefix", "")
	viper.SetDefault("snapshot.s3.path-style", false)
	viper.SetDefault("snapshot.s3.access-key-id", "")
	viper.SetDefault("snapshot.s3.secret-access-key-file", "")

	viper.SetDefault("server.addr", server.DefaultAddr)
	viper.SetDefault("server.max-upload-mb", server.DefaultMaxUploadMB)
	viper.SetDefault("session", store.DefaultSession)
}

func initConfig() {
	// A missing .env is fine, a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %s", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config every setting has a default or an env override.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
