package scoring

import (
	"sort"
	"strings"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

const maxTriggerFoods = 5

type TriggerFood struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type FoodSummary struct {
	Days           int           `json:"days"`
	MealCount      int           `json:"meal_count"`
	DistinctFoods  int           `json:"distinct_foods"`
	VarietyRatio   float64       `json:"variety_ratio"`
	FiberCount     int           `json:"fiber_count"`
	ProcessedCount int           `json:"processed_count"`
	ProcessedRatio float64       `json:"processed_ratio"`
	TriggerFoods   []TriggerFood `json:"trigger_foods"`
}

// Summarize reduces the food logs of the last days calendar days (today
// included) to counts and ratios.
func (s *Scorer) Summarize(food []internal.FoodLog, now time.Time, days int) FoodSummary {
	sum := FoodSummary{Days: days, TriggerFoods: []TriggerFood{}}
	if days <= 0 {
		return sum
	}

	today := startOfDay(now.In(s.loc))
	from := today.AddDate(0, 0, -(days - 1)).Format(DateLayout)
	to := today.Format(DateLayout)

	distinct := make(map[string]struct{})
	triggers := make(map[string]int)
	for _, e := range food {
		key := s.DateKey(e.CreatedAt)
		if key == "" || key < from || key > to {
			continue
		}
		sum.MealCount++
		name := strings.ToLower(strings.TrimSpace(e.FoodName))
		distinct[name] = struct{}{}

		text := foodText(e)
		if s.classifier.IsFiber(text) {
			sum.FiberCount++
		}
		if s.classifier.IsProcessed(text) {
			sum.ProcessedCount++
			triggers[name]++
		}
	}

	sum.DistinctFoods = len(distinct)
	if sum.MealCount > 0 {
		sum.VarietyRatio = float64(sum.DistinctFoods) / float64(sum.MealCount)
		sum.ProcessedRatio = float64(sum.ProcessedCount) / float64(sum.MealCount)
	}

	for _, name := range sortedKeys(triggers) {
		sum.TriggerFoods = append(sum.TriggerFoods, TriggerFood{Name: name, Count: triggers[name]})
	}
	sort.SliceStable(sum.TriggerFoods, func(i, j int) bool {
		return sum.TriggerFoods[i].Count > sum.TriggerFoods[j].Count
	})
	if len(sum.TriggerFoods) > maxTriggerFoods {
		sum.TriggerFoods = sum.TriggerFoods[:maxTriggerFoods]
	}
	return sum
}
