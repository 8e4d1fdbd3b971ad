package auth

import (
	"context"
	"crypto/subtle"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

// LocalAuthProvider accepts a single fixed token and maps it to a demo user.
// Development only; config validation rejects it in production.
type LocalAuthProvider struct {
	Token  string
	logger internal.Logger
}

func NewLocalAuthProvider(token string, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{Token: token, logger: logger}
}

func (a *LocalAuthProvider) ValidateToken(ctx context.Context, token string) (*internal.User, error) {
	if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) == 1 {
		return &internal.User{ID: "u1", Email: "demo@example.com", Name: "Demo User"}, nil
	}
	a.logger.Warnf("auth: rejected local token")
	return nil, ErrInvalidToken
}
