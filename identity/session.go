package identity

import "time"

// User is the signed-in account.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// Profile is the user's row in the profiles table.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is an authenticated user context. It is created by SignIn, SignUp
// or Verify and torn down by SignOut; callers pass it around explicitly.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
	Profile      *Profile  `json:"profile,omitempty"`
}

// Active reports whether the session holds a token that has not expired.
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Clear drops every credential and the cached profile.
func (s *Session) Clear() {
	*s = Session{}
}
