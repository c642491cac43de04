// Package files accepts multipart uploads for entity fields and serves them back.
package files

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/upload"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/blob"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/web/handler"
)

const (
	// UploadPath receives one file in the multipart part "file"; registered below the API prefix.
	UploadPath = "/:entity/:field/upload"
	// ServePath returns a stored file; registered below handler.FilesPath.
	ServePath = "/:key"
)

// Reference is the upload response, stored by clients as the field value.
type Reference struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Service is the upload handler.
type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	blobs blob.Store
}

// New creates the handler storing contents in blobs and metadata in db.
func New(cfg *config.Config, db *gorm.DB, blobs blob.Store) *Service {
	if cfg == nil || db == nil || blobs == nil {
		log.Fatal().Msg(handler.ErrNilFatalLogMsg)
		return nil
	}

	return &Service{cfg: cfg, db: db, blobs: blobs}
}

// RegisterUpload adds the upload route below the API router.
func (s *Service) RegisterUpload(api fiber.Router) {
	api.Post(UploadPath, s.Upload)
}

// Register adds the download route below the files router.
func (s *Service) Register(r fiber.Router) {
	r.Get(ServePath, s.Serve)
}

// Upload stores the "file" part and answers with its Reference.
func (s *Service) Upload(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("multipart part \"file\" is required")
	}

	fd, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "failed to open upload")
	}
	defer fd.Close()

	data, err := io.ReadAll(fd)
	if err != nil {
		return errors.Wrap(err, "failed to read upload")
	}

	f := &upload.File{Name: fh.Filename, ContentType: fh.Header.Get(fiber.HeaderContentType), Data: data}
	if f.ContentType == "" {
		f.ContentType = fiber.MIMEOctetStream
	}

	if err := upload.CheckFile(f, float64(s.cfg.Upload.MaxSizeMB), s.cfg.Upload.AllowedTypes); err != nil {
		status := fiber.StatusUnsupportedMediaType
		if errors.Is(err, upload.ErrFileTooLarge) {
			status = fiber.StatusRequestEntityTooLarge
		}

		return c.Status(status).SendString(err.Error())
	}

	meta := models.Upload{
		Key:         uuid.NewString(),
		Entity:      c.Params("entity"),
		Field:       c.Params("field"),
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size(),
	}

	if err := s.blobs.Set(meta.Key, f.Data, 0); err != nil {
		return errors.Wrap(err, "failed to store upload")
	}

	if err := s.db.WithContext(c.Context()).Create(&meta).Error; err != nil {
		_ = s.blobs.Delete(meta.Key)
		return errors.Wrap(err, "failed to record upload")
	}

	log.Info().
		Str("entity", meta.Entity).
		Str("field", meta.Field).
		Str("key", meta.Key).
		Str("size", upload.HumanSize(meta.Size)).
		Msg("file uploaded")

	return c.Status(fiber.StatusCreated).JSON(Reference{
		Key:         meta.Key,
		URL:         s.fileURL(meta.Key),
		Name:        meta.Name,
		ContentType: meta.ContentType,
		Size:        meta.Size,
	})
}

// Serve returns a stored file with its original content type.
func (s *Service) Serve(c fiber.Ctx) error {
	var meta models.Upload

	err := s.db.WithContext(c.Context()).Where(&models.Upload{Key: c.Params("key")}).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.SendStatus(fiber.StatusNotFound)
	}

	if err != nil {
		return errors.Wrap(err, "failed to read upload")
	}

	data, err := s.blobs.Get(meta.Key)
	if err != nil {
		return errors.Wrap(err, "failed to read upload content")
	}

	if data == nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	c.Set(fiber.HeaderContentType, meta.ContentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+strings.ReplaceAll(meta.Name, `"`, "")+`"`)

	return c.Send(data)
}

func (s *Service) fileURL(key string) string {
	return strings.TrimRight(s.cfg.Webserver.URL, "/") + handler.FilesPath + "/" + key
}
