package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

var validate = validator.New()

var ErrInvalidAnalysis = errors.New("analysis_result must be a JSON object")

type FoodLogRequest struct {
	FoodName       string          `json:"food_name" validate:"required,max=200"`
	Description    string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageURL       string          `json:"image_url,omitempty" validate:"omitempty,url"`
	AnalysisResult json.RawMessage `json:"analysis_result,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
}

type StoolLogRequest struct {
	BristolType int        `json:"bristol_type,omitempty" validate:"omitempty,min=1,max=7"`
	Color       string     `json:"color,omitempty" validate:"omitempty,max=50"`
	Consistency string     `json:"consistency,omitempty" validate:"omitempty,max=50"`
	Notes       string     `json:"notes,omitempty" validate:"omitempty,max=2000"`
	ImageURL    string     `json:"image_url,omitempty" validate:"omitempty,url"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

func ValidateFoodLogRequest(body *FoodLogRequest) error {
	if err := validate.Struct(body); err != nil {
		return err
	}
	if len(body.AnalysisResult) > 0 && string(body.AnalysisResult) != "null" {
		var obj map[string]any
		if err := json.Unmarshal(body.AnalysisResult, &obj); err != nil {
			return ErrInvalidAnalysis
		}
	}
	return nil
}

func ValidateStoolLogRequest(body *StoolLogRequest) error {
	return validate.Struct(body)
}

func CreateFoodLog(ctx context.Context, repo storage.FoodLogRepository, user *internal.User, body *FoodLogRequest) (*internal.FoodLog, error) {
	log := &internal.FoodLog{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		FoodName:       body.FoodName,
		Description:    body.Description,
		ImageURL:       body.ImageURL,
		AnalysisResult: body.AnalysisResult,
		CreatedAt:      createdAt(body.CreatedAt),
	}
	if err := repo.SaveFoodLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

func CreateStoolLog(ctx context.Context, repo storage.StoolLogRepository, user *internal.User, body *StoolLogRequest) (*internal.StoolLog, error) {
	log := &internal.StoolLog{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		BristolType: body.BristolType,
		Color:       body.Color,
		Consistency: body.Consistency,
		Notes:       body.Notes,
		ImageURL:    body.ImageURL,
		CreatedAt:   createdAt(body.CreatedAt),
	}
	if err := repo.SaveStoolLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// createdAt honours a client-supplied timestamp for backfilled entries.
func createdAt(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// WindowStart is the start of the calendar day days-1 days before now in
// loc. days <= 0 means no lower bound.
func WindowStart(now time.Time, loc *time.Location, days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.AddDate(0, 0, -(days - 1))
}
