// Package identity talks to the hosted identity provider (a Supabase
// project): password sign-in and sign-up, sign-out, local token
// verification and profile lookup.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/client"
)

var (
	ErrInvalidCredentials   = errors.New("identity: invalid email or password")
	ErrConfirmationRequired = errors.New("identity: email confirmation required")
	ErrNotConfigured        = errors.New("identity: identity provider is not configured")
)

// StatusError is returned for unexpected identity provider responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("identity: provider returned %d: %s", e.Code, e.Message)
}

// Config points the client at a project.
type Config struct {
	URL       string
	AnonKey   string
	JWTSecret string
	Timeout   time.Duration
}

// Client is an identity provider client.
type Client struct {
	http     *client.Client
	anonKey  string
	verifier *Verifier
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	hc := client.New()
	hc.SetBaseURL(strings.TrimRight(cfg.URL, "/"))
	hc.SetTimeout(cfg.Timeout)

	return &Client{
		http:     hc,
		anonKey:  cfg.AnonKey,
		verifier: NewVerifier([]byte(cfg.JWTSecret)),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *struct {
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		UserMetadata map[string]any `json:"user_metadata"`
	} `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
}

func (e errorResponse) message() string {
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Error} {
		if m != "" {
			return m
		}
	}
	return "unknown error"
}

func (t *tokenResponse) session() *Session {
	s := &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if t.User != nil {
		s.User = User{ID: t.User.ID, Email: t.User.Email}
		if name, ok := t.User.UserMetadata["full_name"].(string); ok {
			s.User.FullName = name
		}
	}
	return s
}

// SignIn exchanges an email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if c.anonKey == "" {
		return nil, ErrNotConfigured
	}

	resp, err := c.http.Post("/auth/v1/token", client.Config{
		Ctx:    ctx,
		Header: c.headers(""),
		Param:  map[string]string{"grant_type": "password"},
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, fmt.Errorf("identity: sign in: %w", err)
	}
	defer resp.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var tr tokenResponse
	if err := resp.JSON(&tr); err != nil {
		return nil, fmt.Errorf("identity: decode session: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}
	return tr.session(), nil
}

// SignUp registers a new account. When the project requires email
// confirmation no session exists yet and ErrConfirmationRequired is returned.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	if c.anonKey == "" {
		return nil, ErrNotConfigured
	}

	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	resp, err := c.http.Post("/auth/v1/signup", client.Config{
		Ctx:    ctx,
		Header: c.headers(""),
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: sign up: %w", err)
	}
	defer resp.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var tr tokenResponse
	if err := resp.JSON(&tr); err != nil {
		return nil, fmt.Errorf("identity: decode session: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, ErrConfirmationRequired
	}
	return tr.session(), nil
}

// SignOut revokes the session upstream, then clears it. The session is
// cleared even when revocation fails.
func (c *Client) SignOut(ctx context.Context, s *Session) error {
	if s == nil || s.AccessToken == "" {
		return nil
	}
	defer s.Clear()

	resp, err := c.http.Post("/auth/v1/logout", client.Config{
		Ctx:    ctx,
		Header: c.headers(s.AccessToken),
	})
	if err != nil {
		return fmt.Errorf("identity: sign out: %w", err)
	}
	defer resp.Close()

	return checkStatus(resp)
}

// Verify turns a bearer token into a session without calling the provider.
func (c *Client) Verify(accessToken string) (*Session, error) {
	claims, err := c.verifier.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	return claims.Session(accessToken), nil
}

// LoadProfile fetches the user's profile row and attaches it to s.
// A missing row leaves s.Profile nil.
func (c *Client) LoadProfile(ctx context.Context, s *Session) error {
	resp, err := c.http.Get("/rest/v1/profiles", client.Config{
		Ctx:    ctx,
		Header: c.headers(s.AccessToken),
		Param: map[string]string{
			"select": "*",
			"id":     "eq." + s.User.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("identity: load profile: %w", err)
	}
	defer resp.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var rows []Profile
	if err := resp.JSON(&rows); err != nil {
		return fmt.Errorf("identity: decode profile: %w", err)
	}
	s.Profile = nil
	if len(rows) > 0 {
		s.Profile = &rows[0]
	}
	return nil
}

func (c *Client) headers(accessToken string) map[string]string {
	h := map[string]string{"apikey": c.anonKey}
	if accessToken != "" {
		h["Authorization"] = "Bearer " + accessToken
	}
	return h
}

func checkStatus(resp *client.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code <= 299 {
		return nil
	}

	var er errorResponse
	_ = resp.JSON(&er)

	switch {
	case er.ErrorCode == "email_not_confirmed" || strings.Contains(strings.ToLower(er.message()), "not confirmed"):
		return ErrConfirmationRequired
	case er.ErrorCode == "invalid_credentials" || er.Error == "invalid_grant":
		return ErrInvalidCredentials
	case code == 401 || code == 403:
		return ErrInvalidToken
	}
	return &StatusError{Code: code, Message: er.message()}
}
