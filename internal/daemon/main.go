// Package daemon wires database, schema registry, blob store and web service for the start command.
package daemon

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/dsn"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/schema"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/blob"
	authmiddleware "github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/middleware/auth"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	blobs      blob.Store
	webService *web.Service
}

// Start serves until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	errc := make(chan error, 1)

	go func() {
		errc <- d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	go d.webService.WaitShutdown()

	err := <-errc

	if cerr := d.blobs.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("closing blob store failed")
	}

	return err
}

// Open connects gorm with the configured engine.
func Open(cfg config.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.GormEngine {
	case config.EngineMySQL:
		dialector = gormmysql.Open(dsn.MySQL(cfg))
	case config.EnginePostgres:
		dialector = gormpostgres.Open(dsn.Postgres(cfg))
	case config.EngineSQLite, "":
		dialector = sqlite.Open(dsn.SQLite(cfg))
	default:
		return nil, config.ErrUnknownGormEngine
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect %s database", cfg.GormEngine)
	}

	return db, nil
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(
		&models.Setting{},
		&models.Record{},
		&models.Upload{},
		&models.Blob{},
	), "failed to migrate database")
}

// NewRegistry registers the configured client with its schema source. A "db" source is seeded from the
// schema dir first.
func NewRegistry(ctx context.Context, cfg *config.Config, db *gorm.DB) (*schema.Registry, error) {
	registry := schema.NewRegistry()
	dir := schema.NewDirProvider(cfg.Client.SchemaDir, cfg.Client.Name)

	switch cfg.Client.SchemaSource {
	case "db":
		p := schema.NewDBProvider(db, cfg.Client.Name)
		if err := seed(ctx, dir, p); err != nil {
			return nil, err
		}

		registry.Register(cfg.Client.Name, p)
	default:
		registry.Register(cfg.Client.Name, dir)
	}

	return registry, nil
}

// New creates a Daemon: it connects and migrates the database and builds the web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := Open(cfg.DB)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	registry, err := NewRegistry(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	blobs, err := blob.New(cfg.Upload, cfg.DB, db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create blob store")
	}

	deps := web.Deps{DB: db, Registry: registry, Blobs: blobs}

	if cfg.Auth.IssuerURL != "" {
		if deps.Verifier, err = authmiddleware.NewVerifier(ctx, cfg.Auth); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("engine", cfg.DB.GormEngine).
		Str("client", cfg.Client.Name).
		Str("schemaSource", cfg.Client.SchemaSource).
		Str("uploadStore", cfg.Upload.Store).
		Msg("daemon ready")

	return &Daemon{cfg: cfg, db: db, blobs: blobs, webService: web.New(cfg, deps)}, nil
}
