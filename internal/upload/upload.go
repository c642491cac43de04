// Package upload replaces file-like payload values with server-issued references before a record is submitted.
package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

// File is a binary file handle that has not been persisted yet.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// Base64 returns the file content as standard base64 text.
func (f *File) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// AsFile returns the file handle carried by v, if any.
func AsFile(v any) (*File, bool) {
	switch f := v.(type) {
	case *File:
		return f, f != nil
	case File:
		return &f, true
	}

	return nil, false
}

// Uploader persists a single file for an entity field and returns the backend's reference for it.
type Uploader interface {
	Upload(ctx context.Context, entityName, field string, f *File) (any, error)
}

// Materializer turns file handles into references using an Uploader, inlining them as base64 when the
// upload is refused.
type Materializer struct {
	Uploader Uploader
}

// NewMaterializer creates a Materializer. A nil uploader always inlines.
func NewMaterializer(u Uploader) *Materializer {
	return &Materializer{Uploader: u}
}

// Materialize returns a copy of payload where every file or image field holding a file handle, and every
// file handle inside an image_gallery array, is replaced. Other keys pass through unchanged.
func (m *Materializer) Materialize(
	ctx context.Context,
	entityName string,
	payload entity.Row,
	schema entity.Schema,
) (entity.Row, error) {
	out := payload.Clone()

	for key, value := range payload {
		switch schema.KindOf(key) {
		case entity.KindFile, entity.KindImage:
			f, ok := AsFile(value)
			if !ok {
				continue
			}

			ref, err := m.persist(ctx, entityName, key, f)
			if err != nil {
				return nil, err
			}

			out[key] = ref
		case entity.KindImageGallery:
			list, ok := value.([]any)
			if !ok || len(list) == 0 {
				continue
			}

			items := slices.Clone(list)

			for i, one := range list {
				f, ok := AsFile(one)
				if !ok {
					continue
				}

				ref, err := m.persist(ctx, entityName, key, f)
				if err != nil {
					return nil, err
				}

				items[i] = ref
			}

			out[key] = items
		}
	}

	return out, nil
}

func (m *Materializer) persist(ctx context.Context, entityName, field string, f *File) (any, error) {
	if m != nil && m.Uploader != nil {
		ref, err := m.Uploader.Upload(ctx, entityName, field, f)
		if err == nil {
			observe(resultUploaded)
			return ref, nil
		}

		log.Warn().Err(err).
			Str("entity", entityName).
			Str("field", field).
			Str("file", f.Name).
			Msg("upload failed, inlining file as base64")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observe(resultInlined)

	return f.Base64(), nil
}

// CheckFile validates a file against a size limit in megabytes and a list of allowed content types.
// A zero limit or an empty list disables the respective check.
func CheckFile(f *File, maxSizeMB float64, allowedTypes []string) error {
	if maxSizeMB > 0 && float64(f.Size()) > maxSizeMB*1024*1024 {
		return fmt.Errorf("%w: must be less than %v MB", ErrFileTooLarge, maxSizeMB)
	}

	if len(allowedTypes) > 0 && !slices.Contains(allowedTypes, f.ContentType) {
		return fmt.Errorf("%w: allowed %v", ErrFileTypeNotAllowed, allowedTypes)
	}

	return nil
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// HumanSize formats a byte count with two decimals, e.g. "1.50KB".
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return ""
	}

	i := min(int(math.Floor(math.Log(float64(bytes))/math.Log(1024))), len(sizeUnits)-1)

	return fmt.Sprintf("%.2f%s", float64(bytes)/math.Pow(1024, float64(i)), sizeUnits[i])
}
