package scoring

type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

const (
	trendGroupSize = 7
	trendThreshold = 5.0
)

type Trend struct {
	Direction    Direction `json:"direction"`
	RecentMean   float64   `json:"recent_mean"`
	PreviousMean float64   `json:"previous_mean"`
	RecentDays   int       `json:"recent_days"`
	PreviousDays int       `json:"previous_days"`
}

// ComputeTrend compares the mean of the last 7 scored days with the mean of
// the 7 scored days before them. It returns nil with fewer than 14 scored
// days.
func ComputeTrend(series []DayScore) *Trend {
	scored := make([]int, 0, len(series))
	for _, d := range series {
		if d.OverallScore != nil {
			scored = append(scored, *d.OverallScore)
		}
	}

	if len(scored) < 2*trendGroupSize {
		return nil
	}
	recentStart := len(scored) - trendGroupSize
	recent := scored[recentStart:]
	previous := scored[recentStart-trendGroupSize : recentStart]

	t := &Trend{
		RecentMean:   mean(recent),
		PreviousMean: mean(previous),
		RecentDays:   len(recent),
		PreviousDays: len(previous),
	}
	switch {
	case t.RecentMean > t.PreviousMean+trendThreshold:
		t.Direction = DirectionUp
	case t.RecentMean < t.PreviousMean-trendThreshold:
		t.Direction = DirectionDown
	default:
		t.Direction = DirectionStable
	}
	return t
}

func mean(vs []int) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vs {
		sum += v
	}
	return float64(sum) / float64(len(vs))
}
