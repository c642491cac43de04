// Package setting stores named values, such as per-client options documents, in the settings table.
package setting

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/models"
)

const nameQueryPattern = "name = ?"

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var s models.Setting
	if err := db.Where(nameQueryPattern, name).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, errors.Wrapf(err, "failed to read setting %q", name)
	}

	return &s, nil
}

// Set creates or replaces the value of a setting.
func Set(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	s := &models.Setting{Name: name, Value: value}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to store setting %q", name)
	}

	return Get(db, name)
}

// List returns the settings whose name starts with prefix, ordered by name.
func List(db *gorm.DB, prefix string) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var all []models.Setting
	if err := db.Order("name").Find(&all).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list settings")
	}

	out := make([]models.Setting, 0, len(all))

	for _, s := range all {
		if strings.HasPrefix(s.Name, prefix) {
			out = append(out, s)
		}
	}

	return out, nil
}

// Delete removes a setting by name.
func Delete(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	res := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete setting %q", name)
	}

	if res.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// GetJSON decodes the value of a setting into out.
func GetJSON(db *gorm.DB, name string, out any) error {
	s, err := Get(db, name)
	if err != nil {
		return err
	}

	return errors.Wrapf(json.Unmarshal(s.Value, out), "setting %q is not valid json", name)
}

// SetJSON stores v JSON-encoded.
func SetJSON(db *gorm.DB, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode setting %q", name)
	}

	_, err = Set(db, name, raw)

	return err
}
