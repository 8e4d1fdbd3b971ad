package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/scoring"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

const summaryDays = 7

// LogStore is the read side the analytics need.
type LogStore interface {
	storage.FoodLogRepository
	storage.StoolLogRepository
}

type Dashboard struct {
	*scoring.History
	Trend       *scoring.Trend      `json:"trend"`
	Summary     scoring.FoodSummary `json:"summary"`
	Suggestions []string            `json:"suggestions"`
}

// loadLogs fetches both log kinds concurrently.
func loadLogs(ctx context.Context, store LogStore, userID string, foodSince, stoolSince time.Time) ([]internal.FoodLog, []internal.StoolLog, error) {
	var (
		food  []internal.FoodLog
		stool []internal.StoolLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		food, err = store.ListFoodLogs(gctx, userID, foodSince)
		return err
	})
	g.Go(func() error {
		var err error
		stool, err = store.ListStoolLogs(gctx, userID, stoolSince)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return food, stool, nil
}

// BuildDashboard scores the days-long window ending today and attaches the
// trend, the weekly food summary and today's suggestions.
func BuildDashboard(ctx context.Context, store LogStore, scorer *scoring.Scorer, user *internal.User, days int, now time.Time) (*Dashboard, error) {
	if !scoring.ValidWindow(days) {
		return nil, scoring.ErrInvalidWindow
	}
	since := WindowStart(now, scorer.Location(), max(days, summaryDays))
	food, stool, err := loadLogs(ctx, store, user.ID, since, since)
	if err != nil {
		return nil, err
	}

	hist, err := scorer.History(food, stool, now, days)
	if err != nil {
		return nil, err
	}
	summary := scorer.Summarize(food, now, summaryDays)
	return &Dashboard{
		History:     hist,
		Trend:       scoring.ComputeTrend(hist.Series),
		Summary:     summary,
		Suggestions: scoring.Suggestions(hist.Today, summary),
	}, nil
}

// ScoreDay scores a single calendar date given as YYYY-MM-DD.
func ScoreDay(ctx context.Context, store LogStore, scorer *scoring.Scorer, user *internal.User, date string) (scoring.DayScore, error) {
	day, err := time.ParseInLocation(scoring.DateLayout, date, scorer.Location())
	if err != nil {
		return scoring.DayScore{}, err
	}
	food, stool, err := loadLogs(ctx, store, user.ID, day, day)
	if err != nil {
		return scoring.DayScore{}, err
	}
	return scorer.ScoreDate(day, food, stool), nil
}

// TodayScore is the payload pushed to realtime sessions after a save.
func TodayScore(ctx context.Context, store LogStore, scorer *scoring.Scorer, userID string, now time.Time) (scoring.DayScore, error) {
	since := WindowStart(now, scorer.Location(), 1)
	food, stool, err := loadLogs(ctx, store, userID, since, since)
	if err != nil {
		return scoring.DayScore{}, err
	}
	return scorer.ScoreDate(now, food, stool), nil
}

// Calendar builds the activity map for month (YYYY-MM).
func Calendar(ctx context.Context, store LogStore, scorer *scoring.Scorer, user *internal.User, month string) (*scoring.MonthActivity, error) {
	year, m, err := scoring.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	first := time.Date(year, m, 1, 0, 0, 0, 0, scorer.Location())
	food, stool, err := loadLogs(ctx, store, user.ID, first, first)
	if err != nil {
		return nil, err
	}
	return scorer.MonthlyActivity(food, stool, year, m), nil
}

type Streak struct {
	Days int `json:"days"`
}

func StoolStreak(ctx context.Context, repo storage.StoolLogRepository, scorer *scoring.Scorer, user *internal.User, now time.Time) (Streak, error) {
	stool, err := repo.ListStoolLogs(ctx, user.ID, WindowStart(now, scorer.Location(), 366))
	if err != nil {
		return Streak{}, err
	}
	return Streak{Days: scorer.StoolStreak(stool, now)}, nil
}

func ListFoodLogs(ctx context.Context, repo storage.FoodLogRepository, loc *time.Location, user *internal.User, days int) ([]internal.FoodLog, error) {
	return repo.ListFoodLogs(ctx, user.ID, WindowStart(time.Now(), loc, days))
}

func ListStoolLogs(ctx context.Context, repo storage.StoolLogRepository, loc *time.Location, user *internal.User, days int) ([]internal.StoolLog, error) {
	return repo.ListStoolLogs(ctx, user.ID, WindowStart(time.Now(), loc, days))
}
