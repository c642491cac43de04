package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/api"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/auth"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/controller"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/schema"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/upload"
)

const defaultSessionFile = "~/.go-entity-admin/session.json"

// sessionPath returns the session file with a leading "~" expanded to the home directory.
func sessionPath(c *config.Config) (string, error) {
	p := c.Auth.SessionFile
	if p == "" {
		p = defaultSessionFile
	}

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolve home directory")
		}

		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}

	return p, nil
}

// newAPIClient builds the data-access client: the HTTP backend, authenticated with the stored session when
// there is one, optionally answering the options operation from local schema files.
func newAPIClient(c *config.Config) (api.Client, error) {
	if err := c.RequireAPI(); err != nil {
		return nil, err
	}

	opts := []api.HTTPOption{
		api.WithHTTPClient(&http.Client{Timeout: c.API.Timeout}),
	}

	if c.API.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(c.API.RateLimit, c.API.RateBurst))
	}

	if path, err := sessionPath(c); err == nil {
		s, err := auth.LoadSession(path, time.Now())

		switch {
		case err == nil:
			opts = append(opts, api.WithTokenSource(auth.TokenSource(s)))
		case errors.Is(err, auth.ErrSessionExpired):
			log.Warn().Str("session", path).Msg("session expired, run login again")
		case !errors.Is(err, auth.ErrNoSession):
			log.Warn().Err(err).Str("session", path).Msg("session unreadable")
		}
	}

	httpClient, err := api.NewHTTPClient(c.API.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	if c.Client.SchemaSource != "dir" || c.Client.SchemaDir == "" {
		return httpClient, nil
	}

	registry := schema.NewRegistry()
	registry.Register(c.Client.Name, schema.NewDirProvider(c.Client.SchemaDir, c.Client.Name))

	return api.NewRegistryClient(httpClient, registry, c.Client.Name), nil
}

// controllerOptions maps the controller section of the config onto controller options.
func controllerOptions(c *config.Config) controller.Options {
	mode, _ := controller.ParseMode(c.Controller.Mode)

	return controller.Options{
		Mode:             mode,
		PreferredColumns: c.Controller.PreferredColumns,
		MaxColumns:       c.Controller.MaxColumns,
		RefPageSize:      c.Controller.RefPageSize,
		PageSize:         c.Controller.PageSize,
		RemoteDebounce:   c.Controller.RemoteDebounce,
		LocalDebounce:    c.Controller.LocalDebounce,
		Materializer:     upload.NewMaterializer(upload.NewHTTPUploader(c.UploadBase(), nil)),
	}
}

// newController creates a controller for entityName and runs its first load.
func newController(ctx context.Context, entityName string, opts controller.Options) (*controller.Controller, error) {
	client, err := newAPIClient(&cfg)
	if err != nil {
		return nil, err
	}

	ctrl := controller.New(entityName, client, opts)

	if err := ctrl.Start(ctx); err != nil {
		ctrl.Close()
		return nil, err
	}

	return ctrl, nil
}
