package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/config"
)

func TestLocalAuthProvider(t *testing.T) {
	p := NewLocalAuthProvider("MOCK-TOKEN", internal.NewNopLogger())
	u, err := p.ValidateToken(context.Background(), "MOCK-TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = p.ValidateToken(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = p.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuthProvider(t *testing.T) {
	p := NewJWTAuthProvider("s3cret", internal.NewNopLogger())
	token, err := p.Sign(internal.User{ID: "user-42", Email: "a@b.c"}, time.Hour)
	require.NoError(t, err)

	u, err := p.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", u.ID)
	assert.Equal(t, "a@b.c", u.Email)

	expired, err := p.Sign(internal.User{ID: "user-42"}, -time.Minute)
	require.NoError(t, err)
	_, err = p.ValidateToken(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewJWTAuthProvider("different", internal.NewNopLogger()).Sign(internal.User{ID: "x"}, time.Hour)
	require.NoError(t, err)
	_, err = p.ValidateToken(context.Background(), other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err := noSub.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = p.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoteAuthProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"9f1c","email":"x@y.z","user_metadata":{"full_name":"Ada"}}`))
	}))
	defer srv.Close()

	p := NewRemoteAuthProvider(srv.URL+"/", "anon-key", internal.NewNopLogger())
	u, err := p.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, &internal.User{ID: "9f1c", Email: "x@y.z", Name: "Ada"}, u)

	_, err = p.ValidateToken(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(&config.Config{AuthMode: "jwt", AuthJWTSecret: "k"}, internal.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &JWTAuthProvider{}, p)

	_, err = NewProvider(&config.Config{AuthMode: "basic"}, internal.NewNopLogger())
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(NewLocalAuthProvider("MOCK-TOKEN", internal.NewNopLogger())))
	r.GET("/me", func(c *gin.Context) {
		u, ok := UserFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, u.ID)
	})

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer", "Bearer MOCK-TOKEN", "", http.StatusOK},
		{"query token", "", "?access_token=MOCK-TOKEN", http.StatusOK},
		{"wrong token", "Bearer nope", "", http.StatusUnauthorized},
		{"basic scheme", "Basic MOCK-TOKEN", "?access_token=MOCK-TOKEN", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", w.Body.String())
			} else {
				assert.JSONEq(t, `{"error":{"code":401,"message":"Unauthorized"}}`, w.Body.String())
			}
		})
	}
}
