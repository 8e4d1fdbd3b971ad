package scoring

import (
	"errors"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

var ErrInvalidWindow = errors.New("scoring: window must be 7, 30 or 60 days")

type DayScore struct {
	Date         string `json:"date"`
	Label        string `json:"label"`
	FoodScore    *int   `json:"food_score"`
	StoolScore   *int   `json:"stool_score"`
	OverallScore *int   `json:"overall_score"`
}

// HasData is false when neither component could be scored.
func (d DayScore) HasData() bool {
	return d.FoodScore != nil || d.StoolScore != nil
}

type History struct {
	Days        int        `json:"days"`
	Series      []DayScore `json:"series"`
	Today       DayScore   `json:"today"`
	TodayScore  int        `json:"today_score"`
	TodayStatus Status     `json:"today_status"`
}

func ValidWindow(days int) bool {
	return days == 7 || days == 30 || days == 60
}

// ScoreDate scores the calendar date containing date.
func (s *Scorer) ScoreDate(date time.Time, food []internal.FoodLog, stool []internal.StoolLog) DayScore {
	key := s.DateKey(date)
	foodByDay := s.GroupFoodByDay(food)
	stoolByDay := s.GroupStoolByDay(stool)
	return s.scoreDay(date, foodByDay[key], stoolByDay[key])
}

// History scores every day of the window ending on now's calendar date and
// drops days without any data from the returned series.
func (s *Scorer) History(food []internal.FoodLog, stool []internal.StoolLog, now time.Time, days int) (*History, error) {
	if !ValidWindow(days) {
		return nil, ErrInvalidWindow
	}

	foodByDay := s.GroupFoodByDay(food)
	stoolByDay := s.GroupStoolByDay(stool)

	today := startOfDay(now.In(s.loc))
	all := make([]DayScore, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format(DateLayout)
		all = append(all, s.scoreDay(day, foodByDay[key], stoolByDay[key]))
	}

	h := &History{Days: days, Series: make([]DayScore, 0, len(all))}
	for _, d := range all {
		if d.HasData() {
			h.Series = append(h.Series, d)
		}
	}
	h.Today = all[len(all)-1]
	if h.Today.OverallScore != nil {
		h.TodayScore = *h.Today.OverallScore
	}
	h.TodayStatus = StatusFor(h.TodayScore)
	return h, nil
}

func (s *Scorer) scoreDay(day time.Time, food []internal.FoodLog, stool []internal.StoolLog) DayScore {
	day = day.In(s.loc)
	d := DayScore{
		Date:       day.Format(DateLayout),
		Label:      day.Format("Jan 2"),
		FoodScore:  s.FoodDayScore(food),
		StoolScore: StoolDayScore(stool),
	}
	d.OverallScore = OverallScore(d.FoodScore, d.StoolScore)
	return d
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
