// Package collection serves the entity REST contract: listing with search, filters, sort and paging,
// single records, create, update, delete, CSV export and the per-entity options document.
package collection

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"slices"

	"github.com/gofiber/fiber/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/controller/record"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/schema"
)

const (
	// OptionsPath is the options document of an entity.
	OptionsPath = "/:entity/options"
	// ExportPath is the CSV export of an entity.
	ExportPath = "/:entity/export"
	// ListPath is the collection of an entity.
	ListPath = "/:entity"
	// ItemPath is one record of an entity.
	ItemPath = "/:entity/:id"
)

// Service is the entity collection handler.
type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	registry *schema.Registry
}

// New creates the handler; options documents are looked up for cfg.Client.Name in registry.
func New(cfg *config.Config, db *gorm.DB, registry *schema.Registry) *Service {
	if cfg == nil || db == nil {
		log.Fatal().Msg("cfg or db is nil")
		return nil
	}

	return &Service{cfg: cfg, db: db, registry: registry}
}

// Register adds the routes below r. Options and export are registered before the item routes.
func (s *Service) Register(r fiber.Router) {
	r.Get(OptionsPath, s.Options)
	r.Get(ExportPath, s.Export)
	r.Get(ListPath, s.List)
	r.Post(ListPath, s.Create)
	r.Get(ItemPath, s.Get)
	r.Put(ItemPath, s.Update)
	r.Delete(ItemPath, s.Delete)
}

// Options returns the options document of the entity.
func (s *Service) Options(c fiber.Ctx) error {
	if s.registry == nil {
		return sendError(c, schema.ErrUnknownClient)
	}

	doc, err := s.registry.Options(c.Context(), s.cfg.Client.Name, c.Params("entity"))
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(doc)
}

// List returns {items, total} for the query parameters q, page, size, sortKey, sortDir, filters and the
// equality filters given as any other parameter.
func (s *Service) List(c fiber.Ctx) error {
	name := c.Params("entity")

	q, err := parseListQuery(c.Queries())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	rows, err := record.List(s.db.WithContext(c.Context()), name)
	if err != nil {
		return sendError(c, err)
	}

	items, total := q.apply(rows, s.searchFields(c, name))

	return c.JSON(fiber.Map{"items": items, "total": total})
}

// Get returns one record.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := record.ParseID(c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}

	row, err := record.Get(s.db.WithContext(c.Context()), c.Params("entity"), id)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(row)
}

// Create validates the JSON body against the entity schema and stores it.
func (s *Service) Create(c fiber.Ctx) error {
	name := c.Params("entity")

	row, err := decodeRow(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	if err := entity.ValidateRow(row, s.schema(c, name)); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).SendString(err.Error())
	}

	created, err := record.Create(s.db.WithContext(c.Context()), name, row)
	if err != nil {
		return sendError(c, err)
	}

	log.Info().Str("entity", name).Interface("id", created["id"]).Msg("record created")

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update merges the JSON body into the record; the merged row must satisfy the entity schema.
func (s *Service) Update(c fiber.Ctx) error {
	name := c.Params("entity")
	db := s.db.WithContext(c.Context())

	id, err := record.ParseID(c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}

	patch, err := decodeRow(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	current, err := record.Get(db, name, id)
	if err != nil {
		return sendError(c, err)
	}

	for k, v := range patch {
		current[k] = v
	}

	if err := entity.ValidateRow(current, s.schema(c, name)); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).SendString(err.Error())
	}

	updated, err := record.Update(db, name, id, patch)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(updated)
}

// Delete removes one record.
func (s *Service) Delete(c fiber.Ctx) error {
	name := c.Params("entity")

	id, err := record.ParseID(c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}

	if err := record.Delete(s.db.WithContext(c.Context()), name, id); err != nil {
		return sendError(c, err)
	}

	log.Info().Str("entity", name).Uint64("id", id).Msg("record deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// Export writes the filtered and sorted rows as CSV. Paging parameters are ignored.
func (s *Service) Export(c fiber.Ctx) error {
	name := c.Params("entity")

	q, err := parseListQuery(c.Queries())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	q.size = 0

	rows, err := record.List(s.db.WithContext(c.Context()), name)
	if err != nil {
		return sendError(c, err)
	}

	fields := s.searchFields(c, name)
	items, _ := q.apply(rows, fields)

	out, err := writeCSV(items, exportColumns(fields, items))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(name + ".csv")

	return c.Send(out)
}

// schema returns the entity schema, or nil when the entity has no options document.
func (s *Service) schema(c fiber.Ctx, name string) entity.Schema {
	if s.registry == nil {
		return nil
	}

	doc, err := s.registry.Options(c.Context(), s.cfg.Client.Name, name)
	if err != nil {
		log.Debug().Err(err).Str("entity", name).Msg("no schema, skipping validation")
		return nil
	}

	return entity.ParseOptions(doc).Schema
}

func (s *Service) searchFields(c fiber.Ctx, name string) []string {
	return s.schema(c, name).Names()
}

func decodeRow(body []byte) (entity.Row, error) {
	row := entity.Row{}
	if len(bytes.TrimSpace(body)) == 0 {
		return row, nil
	}

	if err := json.Unmarshal(body, &row); err != nil {
		return nil, errors.Wrap(err, "body must be a json object")
	}

	return row, nil
}

// exportColumns are the schema fields, or the sorted union of the row keys without a schema.
func exportColumns(fields []string, rows []entity.Row) []string {
	if len(fields) > 0 {
		return fields
	}

	seen := map[string]bool{}

	var cols []string

	for _, r := range rows {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}

	slices.Sort(cols)

	return cols
}

func writeCSV(rows []entity.Row, cols []string) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return nil, errors.Wrap(err, "failed to write csv header")
	}

	line := make([]string, len(cols))

	for _, r := range rows {
		for i, k := range cols {
			line[i] = entity.ToString(r[k])
		}

		if err := w.Write(line); err != nil {
			return nil, errors.Wrap(err, "failed to write csv row")
		}
	}

	w.Flush()

	return buf.Bytes(), errors.Wrap(w.Error(), "failed to flush csv")
}

// sendError maps domain errors to status codes; the body is the error message.
func sendError(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, record.ErrRecordNotFound),
		errors.Is(err, schema.ErrNoSchema),
		errors.Is(err, schema.ErrUnknownClient):
		status = fiber.StatusNotFound
	case errors.Is(err, record.ErrInvalidID),
		errors.Is(err, record.ErrEntityEmpty),
		errors.Is(err, schema.ErrInvalidEntity):
		status = fiber.StatusBadRequest
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(status).SendString(err.Error())
}
