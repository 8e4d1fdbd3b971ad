package scoring

const maxSuggestions = 3

type suggestionRule struct {
	applies func(today DayScore, sum FoodSummary) bool
	message string
}

// Evaluated in order; the order is the priority.
var suggestionRules = []suggestionRule{
	{
		applies: func(_ DayScore, sum FoodSummary) bool { return sum.MealCount == 0 },
		message: "Start logging your meals so the coach can spot patterns in what you eat.",
	},
	{
		applies: func(_ DayScore, sum FoodSummary) bool { return sum.MealCount > 0 && sum.FiberCount < 3 },
		message: "Try adding more fiber-rich vegetables, beans or whole grains this week.",
	},
	{
		applies: func(_ DayScore, sum FoodSummary) bool { return sum.ProcessedRatio > 0.3 },
		message: "Consider reducing processed foods for better digestion.",
	},
	{
		applies: func(_ DayScore, sum FoodSummary) bool { return sum.MealCount > 0 && sum.VarietyRatio < 0.5 },
		message: "Mix up your meals: a wider variety of foods supports a more diverse gut microbiome.",
	},
	{
		applies: func(_ DayScore, sum FoodSummary) bool {
			return sum.MealCount > 0 && sum.Days > 0 && float64(sum.MealCount)/float64(sum.Days) < 2
		},
		message: "Aim for regular meals spaced evenly through the day.",
	},
	{
		applies: func(today DayScore, _ FoodSummary) bool { return today.StoolScore == nil },
		message: "Log a stool entry today to complete your digestive picture.",
	},
	{
		applies: func(today DayScore, _ FoodSummary) bool { return today.StoolScore != nil && *today.StoolScore < 60 },
		message: "Unusual color or consistency detected: monitor closely and stay hydrated.",
	},
	{
		applies: func(today DayScore, _ FoodSummary) bool { return today.FoodScore != nil && *today.FoodScore < 60 },
		message: "Add fermented foods like yogurt or kefir to support your gut.",
	},
	{
		applies: func(today DayScore, _ FoodSummary) bool {
			return today.OverallScore != nil && *today.OverallScore >= 80
		},
		message: "Healthy meals and good stool quality. Keep it up!",
	},
}

// Suggestions returns at most three canned messages for today's scores and
// the 7-day food summary.
func Suggestions(today DayScore, sum FoodSummary) []string {
	out := make([]string, 0, maxSuggestions)
	for _, r := range suggestionRules {
		if len(out) == maxSuggestions {
			break
		}
		if r.applies(today, sum) {
			out = append(out, r.message)
		}
	}
	return out
}
