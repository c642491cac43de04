package auth

import "errors"

var (
	// ErrNoTokenEndpoint is returned when neither a token URL nor an issuer URL is configured.
	ErrNoTokenEndpoint = errors.New("no token url or issuer url configured")

	// ErrEmptyClientID is returned when the OAuth2 client id is not configured.
	ErrEmptyClientID = errors.New("oauth2 client id is empty")

	// ErrLoginFailed is returned when the provider rejects the credentials.
	ErrLoginFailed = errors.New("login failed")

	// ErrMalformedToken is returned when the access token is not a decodable JWT.
	ErrMalformedToken = errors.New("malformed access token")

	// ErrNoSession is returned by LoadSession when no session file exists.
	ErrNoSession = errors.New("no session")

	// ErrSessionExpired is returned when a stored session is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)
