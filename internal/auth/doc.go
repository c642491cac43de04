// Package auth is a thin session wrapper around an external OpenID Connect provider.
//
// Login exchanges a username and password for tokens with the OAuth2 resource owner password grant,
// either against a configured token URL or the token endpoint discovered from the issuer. The resulting
// Session carries the tokens and the identity claims of the access token and can be persisted to a file
// readable only by the current user:
//
//	p, err := auth.NewProvider(ctx, cfg)
//	s, err := p.Login(ctx, "bob", "secret")
//	err = auth.SaveSession(path, s)
//
// TokenSource turns a stored session into an oauth2.TokenSource for authorized API requests.
package auth
