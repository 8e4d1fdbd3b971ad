package scoring

import (
	"fmt"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

type ActivityLevel string

const (
	ActivityNone  ActivityLevel = "none"
	ActivityFood  ActivityLevel = "food"
	ActivityStool ActivityLevel = "stool"
	ActivityBoth  ActivityLevel = "both"
)

type DayActivity struct {
	Date         string              `json:"date"`
	HasFoodLogs  bool                `json:"has_food_logs"`
	HasStoolLogs bool                `json:"has_stool_logs"`
	FoodCount    int                 `json:"food_count"`
	StoolCount   int                 `json:"stool_count"`
	Level        ActivityLevel       `json:"level"`
	FoodLogs     []internal.FoodLog  `json:"food_logs"`
	StoolLogs    []internal.StoolLog `json:"stool_logs"`
}

type MonthActivity struct {
	Month  string        `json:"month"`
	Days   []DayActivity `json:"days"`
	byDate map[string]int
}

// Lookup returns the activity for a date inside the month.
func (m *MonthActivity) Lookup(date string) (DayActivity, bool) {
	i, ok := m.byDate[date]
	if !ok {
		return DayActivity{}, false
	}
	return m.Days[i], true
}

// ParseMonth accepts "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("scoring: invalid month %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}

// MonthlyActivity indexes logs for every day of the given month.
func (s *Scorer) MonthlyActivity(food []internal.FoodLog, stool []internal.StoolLog, year int, month time.Month) *MonthActivity {
	first := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	foodByDay := s.GroupFoodByDay(food)
	stoolByDay := s.GroupStoolByDay(stool)

	m := &MonthActivity{Month: first.Format("2006-01"), byDate: make(map[string]int)}
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		dayFood := foodByDay[key]
		dayStool := stoolByDay[key]
		if dayFood == nil {
			dayFood = []internal.FoodLog{}
		}
		if dayStool == nil {
			dayStool = []internal.StoolLog{}
		}
		a := DayActivity{
			Date:         key,
			HasFoodLogs:  len(dayFood) > 0,
			HasStoolLogs: len(dayStool) > 0,
			FoodCount:    len(dayFood),
			StoolCount:   len(dayStool),
			FoodLogs:     dayFood,
			StoolLogs:    dayStool,
		}
		switch {
		case a.HasFoodLogs && a.HasStoolLogs:
			a.Level = ActivityBoth
		case a.HasFoodLogs:
			a.Level = ActivityFood
		case a.HasStoolLogs:
			a.Level = ActivityStool
		default:
			a.Level = ActivityNone
		}
		m.byDate[key] = len(m.Days)
		m.Days = append(m.Days, a)
	}
	return m
}
