package app

import (
	"encoding/json"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/upload"
)

// ErrInvalidAssignment is returned for a key=value argument without key or "=".
var ErrInvalidAssignment = errors.New("expected key=value")

// splitAssignment splits "key=value".
func splitAssignment(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)

	if !ok || k == "" {
		return "", "", errors.Wrap(ErrInvalidAssignment, s)
	}

	return k, v, nil
}

// parseValue decodes v as JSON, so numbers, booleans, arrays and {"op":..,"value":..} conditions keep their
// type. Anything that is not valid JSON is taken as a plain string.
func parseValue(v string) any {
	var out any
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return v
	}

	return out
}

// parseFilters turns key=value arguments into filters.
func parseFilters(args []string) (entity.Filters, error) {
	f := entity.Filters{}

	for _, a := range args {
		k, v, err := splitAssignment(a)
		if err != nil {
			return nil, err
		}

		f[k] = parseValue(v)
	}

	return f, nil
}

// parseRow decodes a JSON object. An empty string yields an empty row.
func parseRow(data string) (entity.Row, error) {
	row := entity.Row{}
	if strings.TrimSpace(data) == "" {
		return row, nil
	}

	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, errors.Wrap(err, "decode --data")
	}

	return row, nil
}

// readFile loads a file handle; the content type is guessed from the extension.
func readFile(path string) (*upload.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}

	return &upload.File{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}

// attachFiles adds field=path arguments to row. Files of image_gallery fields, and fields given more than
// once, are collected into a list.
func attachFiles(row entity.Row, args []string, schema entity.Schema) error {
	for _, a := range args {
		field, path, err := splitAssignment(a)
		if err != nil {
			return err
		}

		f, err := readFile(path)
		if err != nil {
			return err
		}

		switch prev := row[field].(type) {
		case []any:
			row[field] = append(prev, f)
		case *upload.File:
			row[field] = []any{prev, f}
		default:
			if schema.KindOf(field) == entity.KindImageGallery {
				row[field] = []any{f}
			} else {
				row[field] = f
			}
		}
	}

	return nil
}
