package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/config"
)

var ErrInvalidToken = errors.New("auth: invalid token")

type Provider interface {
	ValidateToken(ctx context.Context, token string) (*internal.User, error)
}

// NewProvider picks the provider named by cfg.AuthMode.
func NewProvider(cfg *config.Config, logger internal.Logger) (Provider, error) {
	switch cfg.AuthMode {
	case "local":
		return NewLocalAuthProvider(cfg.AuthToken, logger), nil
	case "remote":
		return NewRemoteAuthProvider(cfg.AuthServiceURL, cfg.AuthAPIKey, logger), nil
	case "jwt":
		return NewJWTAuthProvider(cfg.AuthJWTSecret, logger), nil
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", cfg.AuthMode)
	}
}
