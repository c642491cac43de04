// Package blob stores uploaded file contents in the database or in a gofiber storage backend.
package blob

import (
	"errors"
	"time"

	mysqlstorage "github.com/gofiber/storage/mysql/v2"
	postgresstorage "github.com/gofiber/storage/postgres/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/dsn"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/models"
)

// Store is the key/value subset of the gofiber storage interface. Get returns nil, nil for a missing key.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Close() error
}

var (
	// ErrDBNil is returned when the database store has no connection.
	ErrDBNil = errors.New("database connection is nil")
	// ErrUnknownStore is returned for an unsupported store name.
	ErrUnknownStore = errors.New("unknown blob store")
)

// New returns the store selected by cfg.Store: "db" keeps blobs in the gorm database, "mysql" and "postgres"
// use the gofiber storage drivers connected with the database settings. The gofiber drivers panic when the
// database is unreachable.
func New(cfg config.Upload, dbCfg config.DB, db *gorm.DB) (Store, error) {
	table := cfg.Table
	if table == "" {
		table = "entity_admin_blobs"
	}

	switch cfg.Store {
	case "", "db":
		s, err := NewDBStore(db)
		if err != nil {
			return nil, err
		}

		return s, nil
	case config.EngineMySQL:
		return mysqlstorage.New(mysqlstorage.Config{
			ConnectionURI: dsn.MySQL(dbCfg),
			Table:         table,
		}), nil
	case config.EnginePostgres:
		return postgresstorage.New(postgresstorage.Config{
			ConnectionURI: dsn.Postgres(dbCfg),
			Table:         table,
		}), nil
	}

	return nil, ErrUnknownStore
}

// DBStore keeps blobs in the models.Blob table.
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStore creates a DBStore. The table must be migrated.
func NewDBStore(db *gorm.DB) (*DBStore, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &DBStore{db: db, now: time.Now}, nil
}

// Get returns the blob under key, nil when it is missing or expired.
func (s *DBStore) Get(key string) ([]byte, error) {
	var b models.Blob

	err := s.db.Where(&models.Blob{Key: key}).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if b.ExpiresAt > 0 && s.now().Unix() >= b.ExpiresAt {
		return nil, nil
	}

	return b.Data, nil
}

// Set stores val under key. A zero exp never expires.
func (s *DBStore) Set(key string, val []byte, exp time.Duration) error {
	b := models.Blob{Key: key, Data: val}
	if exp > 0 {
		b.ExpiresAt = s.now().Add(exp).Unix()
	}

	return s.db.Clauses(clause.OnConflict{ //nolint:wrapcheck
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&b).Error
}

// Delete removes key.
func (s *DBStore) Delete(key string) error {
	return s.db.Delete(&models.Blob{Key: key}).Error //nolint:wrapcheck
}

// Close is a no-op; the connection belongs to the caller.
func (s *DBStore) Close() error {
	return nil
}
