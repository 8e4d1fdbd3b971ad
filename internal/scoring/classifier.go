package scoring

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FoodClassifier decides whether free-text food descriptions fall into the
// fiber or processed buckets used by the food day-score.
type FoodClassifier interface {
	IsFiber(text string) bool
	IsProcessed(text string) bool
}

var defaultFiberKeywords = []string{
	"vegetable", "veggie", "salad", "broccoli", "spinach", "kale", "cabbage",
	"carrot", "lentil", "bean", "chickpea", "quinoa", "brown rice",
	"whole grain", "whole wheat", "bran", "berry", "berries", "avocado",
	"pear", "flax", "chia",
}

var defaultProcessedKeywords = []string{
	"chips", "fries", "fried", "soda", "soft drink", "candy", "burger",
	"pizza", "hot dog", "sausage", "bacon", "nugget", "donut", "doughnut",
	"cookie", "cake", "instant noodle", "ramen", "fast food", "processed",
}

// KeywordClassifier matches case-insensitive substrings against two fixed
// keyword lists. Non-English names never match.
type KeywordClassifier struct {
	fiber     *regexp.Regexp
	processed *regexp.Regexp
}

type keywordFile struct {
	Fiber     []string `yaml:"fiber"`
	Processed []string `yaml:"processed"`
}

func NewKeywordClassifier(fiber, processed []string) (*KeywordClassifier, error) {
	f, err := compileKeywords(fiber)
	if err != nil {
		return nil, fmt.Errorf("classifier: fiber keywords: %w", err)
	}
	p, err := compileKeywords(processed)
	if err != nil {
		return nil, fmt.Errorf("classifier: processed keywords: %w", err)
	}
	return &KeywordClassifier{fiber: f, processed: p}, nil
}

func DefaultClassifier() *KeywordClassifier {
	c, err := NewKeywordClassifier(defaultFiberKeywords, defaultProcessedKeywords)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadKeywordClassifier reads replacement keyword lists from a YAML file with
// top-level "fiber" and "processed" sequences. A list left out of the file
// keeps its default.
func LoadKeywordClassifier(path string) (*KeywordClassifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: read %s: %w", path, err)
	}
	var kf keywordFile
	if err := yaml.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("classifier: parse %s: %w", path, err)
	}
	if kf.Fiber == nil {
		kf.Fiber = defaultFiberKeywords
	}
	if kf.Processed == nil {
		kf.Processed = defaultProcessedKeywords
	}
	return NewKeywordClassifier(kf.Fiber, kf.Processed)
}

func (c *KeywordClassifier) IsFiber(text string) bool {
	return c.fiber != nil && c.fiber.MatchString(text)
}

func (c *KeywordClassifier) IsProcessed(text string) bool {
	return c.processed != nil && c.processed.MatchString(text)
}

func compileKeywords(words []string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	if len(quoted) == 0 {
		return nil, nil
	}
	return regexp.Compile("(?i)(" + strings.Join(quoted, "|") + ")")
}
