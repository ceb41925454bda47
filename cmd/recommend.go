package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/catalog"
	"github.com/spigell/skillmatch/internal/pipeline"
	"github.com/spigell/skillmatch/internal/ranking"
)

const (
	PromptBack             = "back"
	PromptExit             = "exit"
	PromptDetails          = "Show details"
	PromptDismiss          = "Dismiss the job"
	PromptReportByCompany  = "Report by companies"
	PromptJobsToFile       = "Dump jobs to file"
	PromptDismissAll       = "Dismiss all jobs"
	defaultDismissedReason = "dismissed from the interactive browser"
	dumpPattern            = "skillmatch-jobs-*.json"
)

var errExit = errors.New("exit requested")

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank the job catalog against the stored profile",
	Run: func(cmd *cobra.Command, _ []string) {
		recommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("limit", "l", "", "number of jobs to return, -1 or \"all\" for the whole catalog")
	recommendCmd.Flags().BoolP("interactive", "i", false, "browse the ranked jobs and dismiss the ones you do not want")
	recommendCmd.Flags().Bool("dump", false, "write the ranked jobs to a temp file")
	recommendCmd.Flags().StringP("catalog", "c", "", "job catalog file or URL")
	recommendCmd.Flags().StringP("dismissed-file", "e", "", "file with dismissed jobs to exclude")

	viper.BindPFlag("catalog.source", recommendCmd.Flags().Lookup("catalog"))
	viper.BindPFlag("filters.dismissed-file", recommendCmd.Flags().Lookup("dismissed-file"))
}

func recommend(cmd *cobra.Command) {
	ctx := context.Background()

	d := setup(ctx, true)
	defer d.close()
	logger := d.logger

	limit, err := pipeline.ParseLimit(mustString(cmd, "limit"))
	if err != nil {
		logger.Fatal("parsing limit", zap.Error(err))
	}

	rec, err := d.recommender.Recommend(ctx, pipeline.RecommendRequest{
		Session: d.config.Session,
		Limit:   limit,
	})
	if err != nil {
		logger.Fatal("recommending jobs", zap.Error(err), zap.String("hint", "run the build command first"))
	}

	logger.Info("ranked jobs",
		zap.Int("returned", len(rec.Jobs)),
		zap.Int("catalog", rec.CatalogSize),
		zap.Int("skill_tokens", len(rec.SkillTokens)),
		zap.Int("preference_tokens", len(rec.PreferenceTokens)),
	)

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		filename, err := catalog.DumpToTmpFile(dumpPattern, rec)
		if err != nil {
			logger.Fatal("dump results to file", zap.Error(err))
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive {
		if err := printJSON(rec); err != nil {
			logger.Fatal("printing jobs", zap.Error(err))
		}
		return
	}

	b := &browser{
		jobs:          rec.Jobs,
		dismissedFile: d.config.Filters.DismissedFile,
		logger:        logger,
	}
	if err := b.run(); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// browser walks ranked jobs with promptui.
type browser struct {
	jobs          []ranking.RankedJob
	dismissedFile string
	logger        *zap.Logger
}

func (b *browser) run() error {
	for {
		if len(b.jobs) == 0 {
			b.logger.Info("exiting", zap.String("reason", "no jobs left"))
			return errExit
		}

		items := make([]string, 0, len(b.jobs)+4)
		for _, job := range b.jobs {
			items = append(items, label(job))
		}
		items = append(items, PromptReportByCompany, PromptJobsToFile)
		if b.dismissedFile != "" {
			items = append(items, PromptDismissAll)
		}
		items = append(items, PromptExit)

		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: items,
			Size:  15,
		}

		_, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptExit:
			return errExit
		case PromptReportByCompany:
			pretty, _ := json.MarshalIndent(b.catalog().ReportByCompany(), "", "  ")
			b.logger.Info(string(pretty), zap.Int("jobs count", len(b.jobs)))
		case PromptJobsToFile:
			filename, err := catalog.DumpToTmpFile(dumpPattern, b.jobs)
			if err != nil {
				return fmt.Errorf("dump results to file: %w", err)
			}
			b.logger.Info("dumping result to file", zap.String("filename", filename))
		case PromptDismissAll:
			if err := b.dismiss(b.catalog().Items...); err != nil {
				return err
			}
		default:
			if err := b.job(strings.Split(selected, " ")[0]); err != nil {
				return err
			}
		}
	}
}

func (b *browser) job(id string) error {
	var selected *ranking.RankedJob
	for i := range b.jobs {
		if b.jobs[i].ID == id {
			selected = &b.jobs[i]
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("there is no such job id %s", id)
	}

	items := []string{PromptDetails}
	if b.dismissedFile != "" {
		items = append(items, PromptDismiss)
	}
	items = append(items, PromptBack)

	for {
		actionPrompt := promptui.Select{
			Label: fmt.Sprintf("%s at %s", selected.Title, selected.Company),
			Items: items,
		}

		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptBack:
			return nil
		case PromptDetails:
			pretty, _ := json.MarshalIndent(selected, "", "  ")
			fmt.Println(string(pretty))
		case PromptDismiss:
			job := selected.Job
			return b.dismiss(&job)
		}
	}
}

// dismiss appends jobs to the dismissed file and drops them from the browser.
func (b *browser) dismiss(jobs ...*catalog.Job) error {
	if err := catalog.Dismiss(b.dismissedFile, defaultDismissedReason, jobs...); err != nil {
		return fmt.Errorf("dismissing jobs: %w", err)
	}

	ids := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		ids[job.ID] = struct{}{}
	}

	kept := b.jobs[:0]
	for _, job := range b.jobs {
		if _, ok := ids[job.ID]; !ok {
			kept = append(kept, job)
		}
	}
	b.jobs = kept

	b.logger.Info("appended to dismissed file", zap.String("filename", b.dismissedFile), zap.Int("count", len(ids)))
	return nil
}

func (b *browser) catalog() *catalog.Jobs {
	jobs := &catalog.Jobs{Items: make([]*catalog.Job, 0, len(b.jobs))}
	for i := range b.jobs {
		jobs.Items = append(jobs.Items, &b.jobs[i].Job)
	}
	return jobs
}

func label(job ranking.RankedJob) string {
	return fmt.Sprintf("%s %s / %s / %s (%.1f)", job.ID, job.Title, job.Company, job.Location, job.Scores.Overall)
}
