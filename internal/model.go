package internal

import (
	"encoding/json"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type FoodLog struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	FoodName       string          `json:"food_name"`
	Description    string          `json:"description,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	AnalysisResult json.RawMessage `json:"analysis_result,omitempty"` // opaque nutrition analysis
	CreatedAt      time.Time       `json:"created_at"`
}

// HasAnalysis reports whether the entry carries a non-empty analysis result.
func (f FoodLog) HasAnalysis() bool {
	switch string(f.AnalysisResult) {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}

type StoolLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	BristolType int       `json:"bristol_type,omitempty"` // 1–7, 0 when unknown
	Color       string    `json:"color,omitempty"`
	Consistency string    `json:"consistency,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type HealthProfile struct {
	UserID              string    `json:"user_id"`
	Age                 int       `json:"age,omitempty"`
	Gender              string    `json:"gender,omitempty"`
	HeightCM            float64   `json:"height_cm,omitempty"`
	WeightKG            float64   `json:"weight_kg,omitempty"`
	ActivityLevel       string    `json:"activity_level,omitempty"`
	DietaryRestrictions []string  `json:"dietary_restrictions,omitempty"`
	CustomRestrictions  string    `json:"custom_restrictions,omitempty"`
	MedicalConditions   []string  `json:"medical_conditions,omitempty"`
	Medications         []string  `json:"medications,omitempty"`
	SymptomsNotes       string    `json:"symptoms_notes,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}
