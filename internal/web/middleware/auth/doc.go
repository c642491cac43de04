// Package auth provides the bearer token middleware of the API routes.
//
// When an identity provider is configured, every API request must carry an "Authorization: Bearer <jwt>"
// header whose token verifies against the provider's keys. The token subject is stored in fiber.Locals
// under SubjectKey.
//
// Usage:
//
//	v, err := authmiddleware.NewVerifier(ctx, cfg.Auth)
//	api.Use(authmiddleware.New(v))
package auth
