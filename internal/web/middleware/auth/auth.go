package auth

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
)

// SubjectKey is the fiber.Locals key of the verified token subject.
const SubjectKey = "subject"

// Verifier verifies a raw JWT. *oidc.IDTokenVerifier implements it.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// NewVerifier discovers the provider at cfg.IssuerURL. The audience is checked only when cfg.ClientID is set.
func NewVerifier(ctx context.Context, cfg config.Auth) (Verifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OIDC provider")
	}

	return provider.Verifier(&oidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: cfg.ClientID == "",
	}), nil
}

// New returns the middleware. Requests without a valid bearer token are answered with 401.
func New(v Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw, ok := bearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("missing bearer token")
		}

		token, err := v.Verify(c.Context(), raw)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).SendString("invalid bearer token")
		}

		c.Locals(SubjectKey, token.Subject)

		return c.Next()
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
