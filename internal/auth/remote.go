package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

// RemoteAuthProvider asks a hosted auth service who owns the token, the way
// a managed Postgres/auth platform exposes GET /auth/v1/user.
type RemoteAuthProvider struct {
	AuthServiceURL string
	APIKey         string
	HTTPClient     *http.Client
	logger         internal.Logger
}

type remoteUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
}

func NewRemoteAuthProvider(url, apiKey string, logger internal.Logger) *RemoteAuthProvider {
	return &RemoteAuthProvider{
		AuthServiceURL: strings.TrimRight(url, "/"),
		APIKey:         apiKey,
		HTTPClient:     &http.Client{Timeout: 5 * time.Second},
		logger:         logger,
	}
}

func (a *RemoteAuthProvider) ValidateToken(ctx context.Context, token string) (*internal.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.AuthServiceURL+"/auth/v1/user", nil)
	if err != nil {
		a.logger.Errorf("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if a.APIKey != "" {
		req.Header.Set("apikey", a.APIKey)
	}
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		a.logger.Errorf("failed to call auth service: %v", err)
		return nil, fmt.Errorf("auth: call auth service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Errorf("auth service returned %d", resp.StatusCode)
		return nil, fmt.Errorf("auth: auth service returned %d", resp.StatusCode)
	}
	var ru remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&ru); err != nil {
		a.logger.Errorf("failed to decode auth response: %v", err)
		return nil, err
	}
	if ru.ID == "" {
		return nil, ErrInvalidToken
	}
	name := ru.UserMetadata.FullName
	if name == "" {
		name = ru.UserMetadata.Name
	}
	return &internal.User{ID: ru.ID, Email: ru.Email, Name: name}, nil
}
