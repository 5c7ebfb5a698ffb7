package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/okarpov/jobforge/internal/logger"
	"github.com/okarpov/jobforge/internal/match"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score one candidate profile against a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("profile", "p", "", "path to a JSON file with the candidate profile")
	matchCmd.Flags().String("jobs", "", "path to a JSON file with one job object or an array of jobs")
	matchCmd.Flags().Int("job-index", -1, "index into the jobs array, skips the interactive prompt")

	matchCmd.MarkFlagRequired("profile")
	matchCmd.MarkFlagRequired("jobs")
}

func runMatch(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	profilePath, _ := cmd.Flags().GetString("profile")
	jobsPath, _ := cmd.Flags().GetString("jobs")
	jobIndex, _ := cmd.Flags().GetInt("job-index")

	profile, err := readRecord(profilePath)
	if err != nil {
		zlog.Fatal("reading profile", zap.Error(err))
	}

	jobs, err := readJobs(jobsPath)
	if err != nil {
		zlog.Fatal("reading jobs", zap.Error(err))
	}

	job, err := selectJob(jobs, jobIndex)
	if err != nil {
		zlog.Fatal("selecting a job", zap.Error(err))
	}

	svc, err := buildServices(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("initializing AI services", zap.Error(err))
	}

	result := svc.matcher.Analyze(ctx, profile, job)

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		zlog.Fatal("encoding result", zap.Error(err))
	}

	fmt.Println(string(pretty))
}

func readRecord(path string) (match.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var record match.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return record, nil
}

// readJobs accepts either a single job object or an array of jobs.
func readJobs(path string) ([]match.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var jobs []match.Record
	if err := json.Unmarshal(data, &jobs); err == nil {
		return jobs, nil
	}

	var job match.Record
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return []match.Record{job}, nil
}

func selectJob(jobs []match.Record, index int) (match.Record, error) {
	if len(jobs) == 0 {
		return nil, errors.New("jobs file contains no jobs")
	}

	if index >= 0 {
		if index >= len(jobs) {
			return nil, fmt.Errorf("job index %d out of range, have %d jobs", index, len(jobs))
		}
		return jobs[index], nil
	}

	if len(jobs) == 1 {
		return jobs[0], nil
	}

	items := make([]string, 0, len(jobs))
	for i, job := range jobs {
		label := fmt.Sprintf("%d: %s", i, match.Project(job, match.JobFields))
		items = append(items, logger.TruncateForLog(label, 80))
	}

	jobPrompt := promptui.Select{
		Label: "Choose a job and press ENTER",
		Items: items,
	}

	selected, _, err := jobPrompt.Run()
	if err != nil {
		return nil, err
	}

	return jobs[selected], nil
}
