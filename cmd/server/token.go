package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/auth"
)

var tokenOpts struct {
	userID string
	email  string
	ttl    time.Duration
}

// tokenCmd mints a bearer token for AUTH_MODE=jwt deployments.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed JWT for a user id",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.userID, "user", "", "user id placed in the sub claim")
	f.StringVar(&tokenOpts.email, "email", "", "optional email claim")
	f.DurationVar(&tokenOpts.ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, _ []string) error {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		return errors.New("AUTH_JWT_SECRET is not set")
	}
	p := auth.NewJWTAuthProvider(secret, internal.NewNopLogger())
	token, err := p.Sign(internal.User{ID: tokenOpts.userID, Email: tokenOpts.email}, tokenOpts.ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
