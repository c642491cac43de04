package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const sessionFileMode = 0o600

// Session is a logged in user with the tokens issued for them.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Name         string `json:"name,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	ID           string `json:"id,omitempty"`
	IssuedAt     int64  `json:"iat,omitempty"`
	ExpiresAt    int64  `json:"exp,omitempty"`
}

// Expired reports whether the access token is past its expiry at now. Sessions without expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// Token returns the session as an oauth2 token.
func (s *Session) Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}

	if s.ExpiresAt > 0 {
		t.Expiry = time.Unix(s.ExpiresAt, 0)
	}

	return t
}

// TokenSource returns a token source always yielding the session's access token.
func TokenSource(s *Session) oauth2.TokenSource {
	return oauth2.StaticTokenSource(s.Token())
}

// SaveSession writes the session to path with owner-only permissions.
func SaveSession(path string, s *Session) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	if err := os.WriteFile(path, raw, sessionFileMode); err != nil {
		return errors.Wrap(err, "failed to write session")
	}

	return os.Chmod(path, sessionFileMode)
}

// LoadSession reads a session written by SaveSession. An expired session yields ErrSessionExpired along
// with the session itself.
func LoadSession(path string, now time.Time) (*Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}

		return nil, errors.Wrap(err, "failed to read session")
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode session")
	}

	if s.Expired(now) {
		return &s, ErrSessionExpired
	}

	return &s, nil
}

// DestroySession removes the session file. A missing file is not an error.
func DestroySession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "failed to remove session")
	}

	return nil
}
