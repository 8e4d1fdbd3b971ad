package scoring

import (
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

const maxStreakDays = 365

// StoolStreak counts consecutive logged days back from today. A missing
// entry for today does not break the streak.
func (s *Scorer) StoolStreak(stool []internal.StoolLog, now time.Time) int {
	logged := make(map[string]bool, len(stool))
	for _, l := range stool {
		if key := s.DateKey(l.CreatedAt); key != "" {
			logged[key] = true
		}
	}

	today := startOfDay(now.In(s.loc))
	streak := 0
	for i := 0; i < maxStreakDays; i++ {
		if logged[today.AddDate(0, 0, -i).Format(DateLayout)] {
			streak++
			continue
		}
		if i == 0 {
			continue
		}
		break
	}
	return streak
}
