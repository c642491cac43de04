// Package web implements the demo backend: a fiber app serving the entity REST contract, uploads,
// prometheus metrics and a health check.
package web

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
	fiberlogger "github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/logger/adapter/fiber"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/schema"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/blob"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/handler"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/handler/collection"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/handler/files"
	authmiddleware "github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/middleware/auth"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Deps are the collaborators of the web service.
type Deps struct {
	DB       *gorm.DB
	Registry *schema.Registry
	Blobs    blob.Store
	// Verifier enables bearer token checks on the API routes when set.
	Verifier authmiddleware.Verifier
}

// Start listens on addr until the app is shut down.
func (s *Service) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("starting http server")

	return s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}) //nolint:wrapcheck
}

// WaitShutdown blocks until SIGINT or SIGTERM, then drains and stops the server.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown(context.Background())
}

// Shutdown reports 503 on the health check for the configured drain time, so load balancers stop routing
// here, and then stops the server.
func (s *Service) Shutdown(ctx context.Context) {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service.
func New(cfg *config.Config, deps Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps.DB == nil {
		panic("db cannot be nil")
	}

	bodyLimit := cfg.Webserver.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 16
	}

	app := fiber.New(fiber.Config{
		AppName:       cfg.Title,
		CaseSensitive: true,
		Immutable:     true,
		BodyLimit:     bodyLimit * 1024 * 1024,
	})

	s := &Service{App: app, cfg: cfg, fastShutDown: cfg.DevMode}
	s.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log, CheckAliveURI: handler.CheckAlivePath}))

	app.Get(handler.CheckAlivePath, s.checkAlive)
	app.Get(handler.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group(handler.APIPath)
	if deps.Verifier != nil {
		api.Use(authmiddleware.New(deps.Verifier))
	}

	uploads := files.New(cfg, deps.DB, deps.Blobs)
	uploads.RegisterUpload(api)
	uploads.Register(app.Group(handler.FilesPath))

	var collections handler.Service = collection.New(cfg, deps.DB, deps.Registry)
	collections.Register(api)

	return s
}

func (s *Service) checkAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}
