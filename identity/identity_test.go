package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret, userID string, ttl time.Duration, aud string) string {
	t.Helper()
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:        "ada@example.com",
		Role:         "authenticated",
		UserMetadata: map[string]any{"full_name": "Ada Lovelace"},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

// fakeProvider mimics the auth and rest endpoints of the identity provider.
func fakeProvider(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(call string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, call)
	}
	recorded := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), calls...)
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		record("token:"+r.URL.Query().Get("grant_type")+":"+r.Header.Get("apikey"))
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		switch body["password"] {
		case "correct":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  signToken(t, testSecret, "user-1", time.Hour, Audience),
				"refresh_token": "refresh-1",
				"expires_in":    3600,
				"user": map[string]any{
					"id":            "user-1",
					"email":         body["email"],
					"user_metadata": map[string]any{"full_name": "Ada Lovelace"},
				},
			})
		case "unconfirmed":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":400,"error_code":"email_not_confirmed","msg":"Email not confirmed"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
		}
	})

	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string            `json:"email"`
			Data  map[string]string `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		record("signup:"+body.Data["full_name"])
		w.Header().Set("Content-Type", "application/json")
		if body.Email == "confirm@example.com" {
			_, _ = w.Write([]byte(`{"id":"user-2","email":"confirm@example.com"}`))
			return
		}
		if body.Email == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": signToken(t, testSecret, "user-3", time.Hour, Audience),
			"expires_at":   time.Now().Add(time.Hour).Unix(),
			"user":         map[string]any{"id": "user-3", "email": body.Email},
		})
	})

	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		record("logout:"+r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		record("profiles:"+r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("id") != "eq.user-1" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"user-1","email":"ada@example.com","full_name":"Ada Lovelace","avatar_url":null,"credits":5,"created_at":"2025-01-02T03:04:05.123456+00:00","updated_at":"2025-01-02T03:04:05+00:00"}]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, recorded
}

func newTestClient(url string) *Client {
	return New(Config{URL: url, AnonKey: "anon", JWTSecret: testSecret})
}

func TestSignIn(t *testing.T) {
	srv, calls := fakeProvider(t)
	c := newTestClient(srv.URL)

	s, err := c.SignIn(context.Background(), "ada@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.User.ID)
	assert.Equal(t, "Ada Lovelace", s.User.FullName)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.True(t, s.Active(time.Now()))
	assert.Equal(t, []string{"token:password:anon"}, calls())
}

func TestSignIn_Errors(t *testing.T) {
	srv, _ := fakeProvider(t)
	c := newTestClient(srv.URL)

	_, err := c.SignIn(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = c.SignIn(context.Background(), "ada@example.com", "unconfirmed")
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	_, err = New(Config{URL: srv.URL}).SignIn(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSignUp(t *testing.T) {
	srv, calls := fakeProvider(t)
	c := newTestClient(srv.URL)

	s, err := c.SignUp(context.Background(), "new@example.com", "pw", "Grace Hopper")
	require.NoError(t, err)
	assert.Equal(t, "user-3", s.User.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, 5*time.Second)
	assert.Contains(t, calls(), "signup:Grace Hopper")

	_, err = c.SignUp(context.Background(), "confirm@example.com", "pw", "")
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	_, err = c.SignUp(context.Background(), "taken@example.com", "pw", "")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Equal(t, "User already registered", se.Message)
}

func TestSignOut(t *testing.T) {
	srv, calls := fakeProvider(t)
	c := newTestClient(srv.URL)

	s, err := c.SignIn(context.Background(), "ada@example.com", "correct")
	require.NoError(t, err)
	token := s.AccessToken

	require.NoError(t, c.SignOut(context.Background(), s))
	assert.Contains(t, calls(), "logout:Bearer "+token)
	assert.Empty(t, s.AccessToken)
	assert.False(t, s.Active(time.Now()))

	assert.NoError(t, c.SignOut(context.Background(), s), "signing out twice is fine")
	assert.NoError(t, c.SignOut(context.Background(), nil))
}

func TestLoadProfile(t *testing.T) {
	srv, _ := fakeProvider(t)
	c := newTestClient(srv.URL)

	s, err := c.Verify(signToken(t, testSecret, "user-1", time.Hour, Audience))
	require.NoError(t, err)
	require.NoError(t, c.LoadProfile(context.Background(), s))
	require.NotNil(t, s.Profile)
	assert.Equal(t, 5, s.Profile.Credits)
	require.NotNil(t, s.Profile.FullName)
	assert.Equal(t, "Ada Lovelace", *s.Profile.FullName)
	assert.Nil(t, s.Profile.AvatarURL)
	assert.Equal(t, 2025, s.Profile.CreatedAt.Year())

	other, err := c.Verify(signToken(t, testSecret, "user-9", time.Hour, Audience))
	require.NoError(t, err)
	require.NoError(t, c.LoadProfile(context.Background(), other))
	assert.Nil(t, other.Profile)
}

func TestVerify(t *testing.T) {
	c := newTestClient("http://unused")

	s, err := c.Verify(signToken(t, testSecret, "user-1", time.Hour, Audience))
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.User.ID)
	assert.Equal(t, "ada@example.com", s.User.Email)
	assert.Equal(t, "Ada Lovelace", s.User.FullName)
	assert.Nil(t, s.Profile)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", signToken(t, testSecret, "user-1", -time.Minute, Audience), ErrTokenExpired},
		{"wrong secret", signToken(t, "another-secret-that-is-long-enough-000", "user-1", time.Hour, Audience), ErrInvalidToken},
		{"wrong audience", signToken(t, testSecret, "user-1", time.Hour, "anon"), ErrInvalidToken},
		{"no subject", signToken(t, testSecret, "", time.Hour, Audience), ErrInvalidToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"empty", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerify_UnsignedAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewVerifier([]byte(testSecret)).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearerToken("bearer abc"))
	assert.Empty(t, ExtractBearerToken("Basic abc"))
	assert.Empty(t, ExtractBearerToken("abc"))
	assert.Empty(t, ExtractBearerToken(""))
}
