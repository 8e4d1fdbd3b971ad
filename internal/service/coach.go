package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/llm"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/scoring"
)

const (
	coachSystemPrompt = "You are a helpful gut health coach. Provide friendly, supportive advice about digestive health and nutrition. Keep your responses concise and practical."

	// CoachErrorReply is shown to the user when the model call fails.
	CoachErrorReply = "I apologize, but I encountered an error. Please try again."
)

var ErrCoachUnavailable = errors.New("coach: model request failed")

type ChatRequest struct {
	Message        string          `json:"message" validate:"required,max=4000"`
	UserData       json.RawMessage `json:"user_data,omitempty"`
	IncludeHistory bool            `json:"include_history,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

func ValidateChatRequest(body *ChatRequest) error {
	if err := validate.Struct(body); err != nil {
		return err
	}
	if strings.TrimSpace(body.Message) == "" {
		return errors.New("message must not be blank")
	}
	if len(body.UserData) > 0 && !json.Valid(body.UserData) {
		return errors.New("user_data must be valid JSON")
	}
	return nil
}

// QueryEnricher appends retrieved user context to a question.
type QueryEnricher interface {
	EnrichQuery(ctx context.Context, userID, query string) string
}

// Coach answers free-form questions, optionally grounded in the user's own
// logs and retrieved history.
type Coach struct {
	llm     llm.Client
	rag     QueryEnricher
	store   LogStore
	scorer  *scoring.Scorer
	logger  internal.Logger
	nowFunc func() time.Time
}

func NewCoach(client llm.Client, rag QueryEnricher, store LogStore, scorer *scoring.Scorer, logger internal.Logger) *Coach {
	return &Coach{llm: client, rag: rag, store: store, scorer: scorer, logger: logger, nowFunc: time.Now}
}

// historyContext is the compact weekly picture attached when include_history
// is set.
type historyContext struct {
	TodayScore  int                 `json:"today_score"`
	TodayStatus scoring.Status      `json:"today_status"`
	Trend       *scoring.Trend      `json:"trend,omitempty"`
	Summary     scoring.FoodSummary `json:"food_summary"`
}

func (c *Coach) Chat(ctx context.Context, user *internal.User, body *ChatRequest) (*ChatResponse, error) {
	prompt, err := c.buildPrompt(ctx, user, body)
	if err != nil {
		return nil, err
	}

	reply, err := c.llm.Complete(ctx, llm.Request{
		System:      coachSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoachUnavailable, err)
	}
	return &ChatResponse{Response: strings.TrimSpace(reply)}, nil
}

func (c *Coach) buildPrompt(ctx context.Context, user *internal.User, body *ChatRequest) (string, error) {
	var b strings.Builder
	if c.rag != nil {
		b.WriteString(c.rag.EnrichQuery(ctx, user.ID, body.Message))
	} else {
		b.WriteString(body.Message)
	}

	if len(body.UserData) > 0 && string(body.UserData) != "null" {
		b.WriteString("\n\nUser's Tracking Data:\n")
		b.Write(body.UserData)
	}

	if body.IncludeHistory {
		dash, err := BuildDashboard(ctx, c.store, c.scorer, user, summaryDays, c.nowFunc())
		if err != nil {
			return "", err
		}
		hc, err := json.Marshal(historyContext{
			TodayScore:  dash.TodayScore,
			TodayStatus: dash.TodayStatus,
			Trend:       dash.Trend,
			Summary:     dash.Summary,
		})
		if err != nil {
			return "", err
		}
		b.WriteString("\n\nUser's Gut Health Summary (last 7 days):\n")
		b.Write(hc)
	}
	return b.String(), nil
}
