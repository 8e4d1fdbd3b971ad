package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/rag"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

type ProfileRequest struct {
	Age                 int      `json:"age,omitempty" validate:"omitempty,min=1,max=130"`
	Gender              string   `json:"gender,omitempty" validate:"omitempty,max=50"`
	HeightCM            float64  `json:"height_cm,omitempty" validate:"omitempty,gt=0,lt=300"`
	WeightKG            float64  `json:"weight_kg,omitempty" validate:"omitempty,gt=0,lt=700"`
	ActivityLevel       string   `json:"activity_level,omitempty" validate:"omitempty,oneof=sedentary light moderate active very_active"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty" validate:"omitempty,dive,max=100"`
	CustomRestrictions  string   `json:"custom_restrictions,omitempty" validate:"omitempty,max=2000"`
	MedicalConditions   []string `json:"medical_conditions,omitempty" validate:"omitempty,dive,max=100"`
	Medications         []string `json:"medications,omitempty" validate:"omitempty,dive,max=100"`
	SymptomsNotes       string   `json:"symptoms_notes,omitempty" validate:"omitempty,max=4000"`
}

func ValidateProfileRequest(body *ProfileRequest) error {
	return validate.Struct(body)
}

// SaveProfile replaces the caller's profile with body.
func SaveProfile(ctx context.Context, repo storage.ProfileRepository, user *internal.User, body *ProfileRequest) (*internal.HealthProfile, error) {
	p := &internal.HealthProfile{
		UserID:              user.ID,
		Age:                 body.Age,
		Gender:              body.Gender,
		HeightCM:            body.HeightCM,
		WeightKG:            body.WeightKG,
		ActivityLevel:       body.ActivityLevel,
		DietaryRestrictions: body.DietaryRestrictions,
		CustomRestrictions:  body.CustomRestrictions,
		MedicalConditions:   body.MedicalConditions,
		Medications:         body.Medications,
		SymptomsNotes:       body.SymptomsNotes,
		UpdatedAt:           time.Now().UTC(),
	}
	if err := repo.SaveHealthProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProfileText renders a profile for retrieval ingestion.
func ProfileText(p *internal.HealthProfile) string {
	data := map[string]any{
		"gender":               p.Gender,
		"activity_level":       p.ActivityLevel,
		"dietary_restrictions": p.DietaryRestrictions,
		"custom_restrictions":  p.CustomRestrictions,
		"medical_conditions":   p.MedicalConditions,
		"medications":          p.Medications,
		"symptoms_notes":       p.SymptomsNotes,
	}
	if p.Age > 0 {
		data["age"] = strconv.Itoa(p.Age)
	}
	if p.HeightCM > 0 {
		data["height_cm"] = strconv.FormatFloat(p.HeightCM, 'f', -1, 64)
	}
	if p.WeightKG > 0 {
		data["weight_kg"] = strconv.FormatFloat(p.WeightKG, 'f', -1, 64)
	}
	return rag.KeyValueText(data)
}

// FoodTrackEvent and StoolTrackEvent describe a saved entry as track history.
func FoodTrackEvent(l *internal.FoodLog) rag.TrackEvent {
	data := map[string]any{
		"food_name":   l.FoodName,
		"description": l.Description,
		"created_at":  l.CreatedAt.Format(time.RFC3339),
	}
	if l.HasAnalysis() {
		data["analysis_result"] = strings.TrimSpace(string(l.AnalysisResult))
	}
	return rag.TrackEvent{Type: "food", Data: data, IncludeImage: l.ImageURL != ""}
}

func StoolTrackEvent(l *internal.StoolLog) rag.TrackEvent {
	data := map[string]any{
		"color":       l.Color,
		"consistency": l.Consistency,
		"notes":       l.Notes,
		"created_at":  l.CreatedAt.Format(time.RFC3339),
	}
	if l.BristolType > 0 {
		data["bristol_type"] = strconv.Itoa(l.BristolType)
	}
	return rag.TrackEvent{Type: "stool", Data: data, IncludeImage: l.ImageURL != ""}
}
