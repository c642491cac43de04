package schema

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/controller/setting"
)

// SettingName returns the setting key that stores the options document of an entity for a client.
func SettingName(client, entityName string) string {
	return "schema:" + client + ":" + entityName
}

// DBProvider reads options documents stored as JSON settings.
type DBProvider struct {
	DB     *gorm.DB
	Client string
}

// NewDBProvider creates a DBProvider.
func NewDBProvider(db *gorm.DB, client string) *DBProvider {
	return &DBProvider{DB: db, Client: client}
}

// Options implements Provider.
func (p *DBProvider) Options(ctx context.Context, entityName string) (map[string]any, error) {
	if p.DB == nil {
		return nil, setting.ErrDBNil
	}

	s, err := setting.Get(p.DB.WithContext(ctx), SettingName(p.Client, entityName))
	if err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return nil, errors.Wrapf(ErrNoSchema, "entity %q", entityName)
		}

		return nil, errors.Wrap(err, "failed to read schema setting")
	}

	var doc map[string]any
	if err := json.Unmarshal(s.Value, &doc); err != nil {
		return nil, errors.Wrapf(err, "schema setting for %q is not a json object", entityName)
	}

	return compose(doc), nil
}

// Store saves an options document for an entity, replacing any previous one.
func (p *DBProvider) Store(ctx context.Context, entityName string, doc map[string]any) error {
	if p.DB == nil {
		return setting.ErrDBNil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to encode schema document")
	}

	if _, err := setting.Set(p.DB.WithContext(ctx), SettingName(p.Client, entityName), raw); err != nil {
		return errors.Wrap(err, "failed to store schema setting")
	}

	return nil
}
