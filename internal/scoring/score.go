package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

const DateLayout = "2006-01-02"

// Scorer turns raw logs into day scores. It holds no per-user state.
type Scorer struct {
	classifier FoodClassifier
	loc        *time.Location
}

func NewScorer(classifier FoodClassifier, loc *time.Location) *Scorer {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scorer{classifier: classifier, loc: loc}
}

func (s *Scorer) Location() *time.Location { return s.loc }

// DateKey is the calendar date of t in the scorer's zone; zero times have no date.
func (s *Scorer) DateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format(DateLayout)
}

func (s *Scorer) GroupFoodByDay(logs []internal.FoodLog) map[string][]internal.FoodLog {
	out := make(map[string][]internal.FoodLog)
	for _, l := range logs {
		key := s.DateKey(l.CreatedAt)
		if key == "" {
			continue
		}
		out[key] = append(out[key], l)
	}
	return out
}

func (s *Scorer) GroupStoolByDay(logs []internal.StoolLog) map[string][]internal.StoolLog {
	out := make(map[string][]internal.StoolLog)
	for _, l := range logs {
		key := s.DateKey(l.CreatedAt)
		if key == "" {
			continue
		}
		out[key] = append(out[key], l)
	}
	return out
}

// FoodDayScore scores one calendar day of food logs. Nil means no data.
func (s *Scorer) FoodDayScore(entries []internal.FoodLog) *int {
	if len(entries) == 0 {
		return nil
	}

	score := 0
	switch n := len(entries); {
	case n >= 3 && n <= 5:
		score += 30
	case n == 2 || n == 6:
		score += 20
	default:
		score += 10
	}

	distinct := make(map[string]struct{}, len(entries))
	hasFiber, hasAnalysis := false, false
	processed := 0
	for _, e := range entries {
		distinct[strings.ToLower(strings.TrimSpace(e.FoodName))] = struct{}{}
		text := foodText(e)
		if s.classifier.IsFiber(text) {
			hasFiber = true
		}
		if s.classifier.IsProcessed(text) {
			processed++
		}
		if e.HasAnalysis() {
			hasAnalysis = true
		}
	}

	score += min(8*len(distinct), 30)
	if hasFiber {
		score += 20
	}
	score -= min(10*processed, 30)
	if hasAnalysis {
		score += 20
	}

	score = clamp(score, 0, 100)
	return &score
}

// StoolDayScore scores one calendar day of stool logs using only the most
// recent entry of that day.
func StoolDayScore(entries []internal.StoolLog) *int {
	if len(entries) == 0 {
		return nil
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}

	score := 0
	switch latest.BristolType {
	case 3, 4:
		score += 50
	case 2, 5:
		score += 35
	case 1, 6:
		score += 20
	case 7:
		score += 10
	}

	color := strings.ToLower(latest.Color)
	switch {
	case strings.Contains(color, "brown"):
		score += 30
	case strings.Contains(color, "dark"), strings.Contains(color, "medium"):
		score += 20
	case strings.Contains(color, "yellow"), strings.Contains(color, "green"):
		score += 5
	}

	consistency := strings.ToLower(latest.Consistency)
	switch {
	case strings.Contains(consistency, "normal"), strings.Contains(consistency, "soft"):
		score += 20
	case strings.Contains(consistency, "firm"):
		score += 15
	case strings.Contains(consistency, "hard"), strings.Contains(consistency, "watery"):
		score += 5
	}

	score = min(score, 100)
	return &score
}

// OverallScore averages whichever component scores are present.
func OverallScore(food, stool *int) *int {
	var sum, n int
	if food != nil {
		sum += *food
		n++
	}
	if stool != nil {
		sum += *stool
		n++
	}
	if n == 0 {
		return nil
	}
	v := int(math.Round(float64(sum) / float64(n)))
	return &v
}

type Status string

const (
	StatusGreat          Status = "great"
	StatusNeedsAttention Status = "needs_attention"
	StatusCritical       Status = "critical"
)

func StatusFor(score int) Status {
	switch {
	case score >= 80:
		return StatusGreat
	case score >= 60:
		return StatusNeedsAttention
	default:
		return StatusCritical
	}
}

func foodText(e internal.FoodLog) string {
	if e.Description == "" {
		return e.FoodName
	}
	return e.FoodName + " " + e.Description
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
