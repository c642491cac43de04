// Package record stores entity rows as JSON documents, one table for every entity.
//
// The numeric primary key is exposed as the "id" field of the returned rows and never stored in the document.
package record

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

const entityQueryPattern = "entity = ?"

// ParseID converts an id given as path segment or row value.
func ParseID(v any) (uint64, error) {
	id, err := strconv.ParseUint(entity.ToString(v), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(ErrInvalidID, "%v", v)
	}

	return id, nil
}

// List returns every row of an entity ordered by id.
func List(db *gorm.DB, entityName string) ([]entity.Row, error) {
	if err := check(db, entityName); err != nil {
		return nil, err
	}

	var recs []models.Record
	if err := db.Where(entityQueryPattern, entityName).Order("id").Find(&recs).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", entityName)
	}

	rows := make([]entity.Row, 0, len(recs))

	for i := range recs {
		row, err := toRow(&recs[i])
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// Get returns one row.
func Get(db *gorm.DB, entityName string, id uint64) (entity.Row, error) {
	rec, err := find(db, entityName, id)
	if err != nil {
		return nil, err
	}

	return toRow(rec)
}

// Create stores row as a new record and returns it with its assigned id. An "id" in row is ignored.
func Create(db *gorm.DB, entityName string, row entity.Row) (entity.Row, error) {
	if err := check(db, entityName); err != nil {
		return nil, err
	}

	data, err := encode(row)
	if err != nil {
		return nil, err
	}

	rec := &models.Record{Entity: entityName, Data: data}
	if err := db.Create(rec).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", entityName)
	}

	return toRow(rec)
}

// Update merges row into the stored record. Keys missing from row keep their value.
func Update(db *gorm.DB, entityName string, id uint64, row entity.Row) (entity.Row, error) {
	rec, err := find(db, entityName, id)
	if err != nil {
		return nil, err
	}

	current, err := toRow(rec)
	if err != nil {
		return nil, err
	}

	for k, v := range row {
		current[k] = v
	}

	if rec.Data, err = encode(current); err != nil {
		return nil, err
	}

	if err := db.Save(rec).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to update %s %d", entityName, id)
	}

	return toRow(rec)
}

// Delete removes one record.
func Delete(db *gorm.DB, entityName string, id uint64) error {
	if err := check(db, entityName); err != nil {
		return err
	}

	res := db.Where(entityQueryPattern, entityName).Delete(&models.Record{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete %s %d", entityName, id)
	}

	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrRecordNotFound, "%s %d", entityName, id)
	}

	return nil
}

func check(db *gorm.DB, entityName string) error {
	if db == nil {
		return ErrDBNil
	}

	if entityName == "" {
		return ErrEntityEmpty
	}

	return nil
}

func find(db *gorm.DB, entityName string, id uint64) (*models.Record, error) {
	if err := check(db, entityName); err != nil {
		return nil, err
	}

	var rec models.Record
	if err := db.Where(entityQueryPattern, entityName).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrRecordNotFound, "%s %d", entityName, id)
		}

		return nil, errors.Wrapf(err, "failed to read %s %d", entityName, id)
	}

	return &rec, nil
}

func encode(row entity.Row) ([]byte, error) {
	doc := row.Clone()
	delete(doc, "id")

	raw, err := json.Marshal(doc)

	return raw, errors.Wrap(err, "failed to encode record")
}

func toRow(rec *models.Record) (entity.Row, error) {
	row := entity.Row{}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &row); err != nil {
			return nil, errors.Wrapf(err, "record %d is not a json object", rec.ID)
		}
	}

	row["id"] = float64(rec.ID)

	return row, nil
}
