package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/pipeline"
	"github.com/spigell/skillmatch/internal/profile"
	"github.com/spigell/skillmatch/internal/utils"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a skill profile from a resume and papers",
	Run: func(cmd *cobra.Command, _ []string) {
		build(cmd)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("resume", "r", "", "path to the resume (pdf, docx, html or text)")
	buildCmd.Flags().StringArrayP("paper", "p", nil, "path to a paper; repeat for several papers")
	buildCmd.Flags().StringP("about", "a", "", "a short free-text description of yourself")
	buildCmd.Flags().StringSlice("locations", nil, "preferred locations, they take priority over extracted ones")
	buildCmd.Flags().StringSlice("work-modes", nil, "preferred work modes (remote, hybrid, onsite)")
}

func build(cmd *cobra.Command) {
	ctx := context.Background()

	d := setup(ctx, false)
	defer d.close()
	logger := d.logger

	req := pipeline.BuildRequest{
		Session: viper.GetString("session"),
		About:   mustString(cmd, "about"),
	}

	if path := mustString(cmd, "resume"); path != "" {
		doc, err := readDocument(path)
		if err != nil {
			logger.Fatal("reading resume", zap.Error(err))
		}
		req.Resume = &doc
	}

	papers, _ := cmd.Flags().GetStringArray("paper")
	for _, path := range papers {
		doc, err := readDocument(path)
		if err != nil {
			logger.Fatal("reading paper", zap.Error(err))
		}
		req.Papers = append(req.Papers, doc)
	}

	locations, _ := cmd.Flags().GetStringSlice("locations")
	workModes, _ := cmd.Flags().GetStringSlice("work-modes")
	req.Overrides = profile.Overrides{
		Locations: utils.SplitList(locations...),
		WorkModes: utils.SplitList(workModes...),
	}

	res, err := d.builder.Build(ctx, req)
	if err != nil {
		logger.Fatal("building a profile", zap.Error(err))
	}

	logger.Info("profile saved",
		zap.String("session", res.Session),
		zap.Int("skills", len(res.Profile.Skills)),
		zap.Int("parsed", res.Parsed),
		zap.Int("malformed", res.Malformed),
	)

	if err := printJSON(res); err != nil {
		logger.Fatal("printing the profile", zap.Error(err))
	}
}

func readDocument(path string) (pipeline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Document{}, err
	}
	return pipeline.Document{Name: filepath.Base(path), Data: data}, nil
}

func mustString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}
