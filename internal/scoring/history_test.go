package scoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

func TestHistory_ThreeMealsAndIdealStool(t *testing.T) {
	s := newTestScorer()
	day := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	food := []internal.FoodLog{
		foodAt("Apple", day),
		foodAt("Yogurt", day.Add(4*time.Hour)),
		foodAt("Oatmeal", day.Add(8*time.Hour)),
	}
	stool := []internal.StoolLog{stoolAt(4, "Brown", "Soft", day.Add(time.Hour))}

	h, err := s.History(food, stool, day.Add(12*time.Hour), 7)
	require.NoError(t, err)

	want := []DayScore{{
		Date:         "2024-01-10",
		Label:        "Jan 10",
		FoodScore:    intp(54),
		StoolScore:   intp(100),
		OverallScore: intp(77),
	}}
	if diff := cmp.Diff(want, h.Series); diff != "" {
		t.Fatalf("series mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 77, h.TodayScore)
	assert.Equal(t, StatusNeedsAttention, h.TodayStatus)
}

func TestHistory_DropsEmptyDaysAndDefaultsToday(t *testing.T) {
	s := newTestScorer()
	now := time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC)
	food := []internal.FoodLog{
		foodAt("Rice", now.AddDate(0, 0, -3)),
		foodAt("Old", now.AddDate(0, 0, -40)), // outside window
		{FoodName: "undated"},                 // zero time, ignored
	}
	stool := []internal.StoolLog{stoolAt(4, "Brown", "Normal", now.AddDate(0, 0, -1))}

	h, err := s.History(food, stool, now, 30)
	require.NoError(t, err)
	require.Len(t, h.Series, 2)
	assert.Equal(t, "2024-03-17", h.Series[0].Date)
	assert.Nil(t, h.Series[0].StoolScore)
	assert.Equal(t, 18, *h.Series[0].OverallScore)
	assert.Equal(t, "2024-03-19", h.Series[1].Date)
	assert.Equal(t, 100, *h.Series[1].OverallScore)

	assert.Equal(t, "2024-03-20", h.Today.Date)
	assert.Nil(t, h.Today.OverallScore)
	assert.Equal(t, 0, h.TodayScore)
	assert.Equal(t, StatusCritical, h.TodayStatus)
}

func TestHistory_InvalidWindow(t *testing.T) {
	s := newTestScorer()
	_, err := s.History(nil, nil, time.Now(), 14)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.True(t, ValidWindow(60))
}

func TestScoreDate(t *testing.T) {
	s := newTestScorer()
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	d := s.ScoreDate(at, []internal.FoodLog{foodAt("Tea", at), foodAt("Tea", at.AddDate(0, 0, 1))}, nil)
	assert.Equal(t, "2024-01-10", d.Date)
	assert.Equal(t, 18, *d.FoodScore)
	assert.Nil(t, d.StoolScore)
	assert.True(t, d.HasData())
}

func seriesOf(scores ...int) []DayScore {
	out := make([]DayScore, len(scores))
	for i, v := range scores {
		out[i] = DayScore{OverallScore: intp(v)}
	}
	return out
}

func TestComputeTrend(t *testing.T) {
	up := ComputeTrend(seriesOf(60, 60, 60, 60, 60, 60, 60, 70, 70, 70, 70, 70, 70, 70))
	require.NotNil(t, up)
	assert.Equal(t, DirectionUp, up.Direction)
	assert.InDelta(t, 70.0, up.RecentMean, 0.001)
	assert.InDelta(t, 60.0, up.PreviousMean, 0.001)

	down := ComputeTrend(seriesOf(80, 80, 80, 80, 80, 80, 80, 60, 60, 60, 60, 60, 60, 60))
	require.NotNil(t, down)
	assert.Equal(t, DirectionDown, down.Direction)

	stable := ComputeTrend(seriesOf(70, 70, 70, 70, 70, 70, 70, 75, 75, 75, 75, 75, 75, 75))
	require.NotNil(t, stable)
	assert.Equal(t, DirectionStable, stable.Direction)

	assert.Nil(t, ComputeTrend(seriesOf(90, 90, 90, 90, 90, 90, 90)))
	assert.Nil(t, ComputeTrend(nil))
}

func TestComputeTrend_NeedsFourteenScoredDays(t *testing.T) {
	for n := 8; n < 14; n++ {
		vals := make([]int, 0, n)
		for i := 0; i < n-1; i++ {
			vals = append(vals, 50)
		}
		vals = append(vals, 90)
		assert.Nil(t, ComputeTrend(seriesOf(vals...)), "%d scored days", n)
	}

	series := append(seriesOf(40, 40, 40, 40, 40, 40, 40), DayScore{Date: "no-score"})
	series = append(series, seriesOf(80, 80, 80, 80, 80, 80, 80)...)
	tr := ComputeTrend(series)
	require.NotNil(t, tr, "unscored days are skipped, not counted")
	assert.Equal(t, 7, tr.PreviousDays)
	assert.Equal(t, 7, tr.RecentDays)
	assert.Equal(t, DirectionUp, tr.Direction)
}

func TestSummarize(t *testing.T) {
	s := newTestScorer()
	now := time.Date(2024, 5, 8, 20, 0, 0, 0, time.UTC)
	food := []internal.FoodLog{
		foodAt("Pizza", now),
		foodAt("pizza", now.AddDate(0, 0, -1)),
		foodAt("Fries", now.AddDate(0, 0, -2)),
		foodAt("Kale salad", now.AddDate(0, 0, -3)),
		foodAt("Rice", now.AddDate(0, 0, -6)),
		foodAt("Cake", now.AddDate(0, 0, -7)), // outside the 7-day window
	}

	sum := s.Summarize(food, now, 7)
	assert.Equal(t, 5, sum.MealCount)
	assert.Equal(t, 4, sum.DistinctFoods)
	assert.InDelta(t, 0.8, sum.VarietyRatio, 0.001)
	assert.Equal(t, 1, sum.FiberCount)
	assert.Equal(t, 3, sum.ProcessedCount)
	assert.InDelta(t, 0.6, sum.ProcessedRatio, 0.001)
	assert.Equal(t, []TriggerFood{{Name: "pizza", Count: 2}, {Name: "fries", Count: 1}}, sum.TriggerFoods)

	empty := s.Summarize(nil, now, 7)
	assert.Zero(t, empty.MealCount)
	assert.Zero(t, empty.VarietyRatio)
	assert.Empty(t, empty.TriggerFoods)
}

func TestSuggestions(t *testing.T) {
	noData := Suggestions(DayScore{}, FoodSummary{Days: 7})
	assert.Equal(t, []string{
		"Start logging your meals so the coach can spot patterns in what you eat.",
		"Log a stool entry today to complete your digestive picture.",
	}, noData)

	poor := Suggestions(
		DayScore{FoodScore: intp(40), StoolScore: intp(30), OverallScore: intp(35)},
		FoodSummary{Days: 7, MealCount: 5, DistinctFoods: 2, VarietyRatio: 0.4, ProcessedCount: 3, ProcessedRatio: 0.6},
	)
	require.Len(t, poor, 3)
	assert.Equal(t, "Try adding more fiber-rich vegetables, beans or whole grains this week.", poor[0])
	assert.Equal(t, "Consider reducing processed foods for better digestion.", poor[1])
	assert.Equal(t, "Mix up your meals: a wider variety of foods supports a more diverse gut microbiome.", poor[2])

	good := Suggestions(
		DayScore{FoodScore: intp(90), StoolScore: intp(100), OverallScore: intp(95)},
		FoodSummary{Days: 7, MealCount: 21, DistinctFoods: 18, VarietyRatio: 18.0 / 21, FiberCount: 9},
	)
	assert.Equal(t, []string{"Healthy meals and good stool quality. Keep it up!"}, good)
}

func TestMonthlyActivity(t *testing.T) {
	s := newTestScorer()
	food := []internal.FoodLog{
		foodAt("Soup", time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)),
		foodAt("Bread", time.Date(2024, 2, 3, 19, 0, 0, 0, time.UTC)),
		foodAt("Tea", time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)),
		foodAt("March", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	stool := []internal.StoolLog{
		stoolAt(4, "Brown", "Normal", time.Date(2024, 2, 3, 8, 0, 0, 0, time.UTC)),
		stoolAt(3, "Brown", "Soft", time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)),
	}

	m := s.MonthlyActivity(food, stool, 2024, time.February)
	assert.Equal(t, "2024-02", m.Month)
	require.Len(t, m.Days, 29)

	d, ok := m.Lookup("2024-02-03")
	require.True(t, ok)
	assert.Equal(t, ActivityBoth, d.Level)
	assert.Equal(t, 2, d.FoodCount)
	assert.Equal(t, 1, d.StoolCount)
	assert.Len(t, d.FoodLogs, 2)

	d, _ = m.Lookup("2024-02-10")
	assert.Equal(t, ActivityStool, d.Level)
	d, _ = m.Lookup("2024-02-29")
	assert.Equal(t, ActivityFood, d.Level)
	d, _ = m.Lookup("2024-02-01")
	assert.Equal(t, ActivityNone, d.Level)
	assert.False(t, d.HasFoodLogs)
	assert.NotNil(t, d.FoodLogs)

	_, ok = m.Lookup("2024-03-01")
	assert.False(t, ok)
}

func TestParseMonth(t *testing.T) {
	y, m, err := ParseMonth("2024-11")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.November, m)

	_, _, err = ParseMonth("November")
	assert.Error(t, err)
}

func TestStoolStreak(t *testing.T) {
	s := newTestScorer()
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	logs := []internal.StoolLog{
		stoolAt(4, "", "", now.AddDate(0, 0, -1)),
		stoolAt(4, "", "", now.AddDate(0, 0, -2)),
		stoolAt(4, "", "", now.AddDate(0, 0, -2).Add(time.Hour)),
		stoolAt(4, "", "", now.AddDate(0, 0, -5)),
	}
	assert.Equal(t, 2, s.StoolStreak(logs, now))

	logs = append(logs, stoolAt(4, "", "", now))
	assert.Equal(t, 3, s.StoolStreak(logs, now))

	assert.Equal(t, 0, s.StoolStreak(nil, now))
}

func TestLoadKeywordClassifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fiber:\n  - apple\n  - oat\n"), 0o644))

	c, err := LoadKeywordClassifier(path)
	require.NoError(t, err)
	assert.True(t, c.IsFiber("Oatmeal"))
	assert.True(t, c.IsFiber("Green APPLE"))
	assert.False(t, c.IsFiber("spinach"))
	assert.True(t, c.IsProcessed("Bacon sandwich"), "processed list keeps its default")

	s := NewScorer(c, time.UTC)
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	got := s.FoodDayScore([]internal.FoodLog{foodAt("Apple", at), foodAt("Yogurt", at), foodAt("Oatmeal", at)})
	assert.Equal(t, 74, *got)

	_, err = LoadKeywordClassifier(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewKeywordClassifier_EmptyListsNeverMatch(t *testing.T) {
	c, err := NewKeywordClassifier(nil, []string{"  "})
	require.NoError(t, err)
	assert.False(t, c.IsFiber("kale"))
	assert.False(t, c.IsProcessed("pizza"))
}
