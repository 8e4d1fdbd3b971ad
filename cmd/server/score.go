package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/scoring"
)

var scoreOpts struct {
	foodFile   string
	stoolFile  string
	days       int
	now        string
	timezone   string
	classifier string
}

// scoreCmd scores exported logs offline, without a server or database.
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score food and stool logs from JSON files",
	Example: `  gutbuddy score --food food_logs.json --stool stool_logs.json --days 30
  gutbuddy score --stool stool_logs.json --now 2024-01-10 --tz Europe/Berlin`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreOpts.foodFile, "food", "", "JSON array of food log entries")
	f.StringVar(&scoreOpts.stoolFile, "stool", "", "JSON array of stool log entries")
	f.IntVar(&scoreOpts.days, "days", 7, "window length: 7, 30 or 60")
	f.StringVar(&scoreOpts.now, "now", "", "score as of this date (YYYY-MM-DD), default today")
	f.StringVar(&scoreOpts.timezone, "tz", "Local", "time zone for day boundaries")
	f.StringVar(&scoreOpts.classifier, "classifier", "", "YAML keyword file overriding the built-in food keywords")
}

type scoreReport struct {
	*scoring.History
	Trend       *scoring.Trend      `json:"trend"`
	Summary     scoring.FoodSummary `json:"summary"`
	Suggestions []string            `json:"suggestions"`
	Streak      int                 `json:"stool_streak"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	loc, err := time.LoadLocation(scoreOpts.timezone)
	if err != nil {
		return fmt.Errorf("--tz: %w", err)
	}
	now := time.Now().In(loc)
	if scoreOpts.now != "" {
		day, err := time.ParseInLocation(scoring.DateLayout, scoreOpts.now, loc)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		now = day
	}

	var classifier scoring.FoodClassifier = scoring.DefaultClassifier()
	if scoreOpts.classifier != "" {
		if classifier, err = scoring.LoadKeywordClassifier(scoreOpts.classifier); err != nil {
			return err
		}
	}

	var (
		food  []internal.FoodLog
		stool []internal.StoolLog
	)
	if err := readJSON(scoreOpts.foodFile, &food); err != nil {
		return err
	}
	if err := readJSON(scoreOpts.stoolFile, &stool); err != nil {
		return err
	}

	scorer := scoring.NewScorer(classifier, loc)
	hist, err := scorer.History(food, stool, now, scoreOpts.days)
	if err != nil {
		return err
	}
	summary := scorer.Summarize(food, now, 7)
	report := scoreReport{
		History:     hist,
		Trend:       scoring.ComputeTrend(hist.Series),
		Summary:     summary,
		Suggestions: scoring.Suggestions(hist.Today, summary),
		Streak:      scorer.StoolStreak(stool, now),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func readJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
