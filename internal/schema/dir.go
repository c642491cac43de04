package schema

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const docExt = ".toml"

// DirProvider reads options documents from <Dir>/<Client>/<entity>.toml.
//
// A document is either the options object itself (schema and table keys at top level) or a pair of
// [base] and [extra] tables that are deep-merged, extra over base.
type DirProvider struct {
	Dir    string
	Client string
}

// NewDirProvider creates a DirProvider.
func NewDirProvider(dir, client string) *DirProvider {
	return &DirProvider{Dir: dir, Client: client}
}

// Options implements Provider.
func (p *DirProvider) Options(ctx context.Context, entityName string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := p.path(entityName)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrNoSchema, "entity %q", entityName)
		}

		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	log.Debug().Str("client", p.Client).Str("entity", entityName).Str("path", path).Msg("loaded schema document")

	return jsonShape(compose(doc))
}

// Entities lists the entity names that have a document in the client directory.
func (p *DirProvider) Entities() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.Dir, p.Client))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read schema dir")
	}

	out := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != docExt {
			continue
		}

		out = append(out, strings.TrimSuffix(e.Name(), docExt))
	}

	return out, nil
}

// jsonShape converts decoded TOML values (int64, []map[string]any, ...) to the shapes encoding/json yields.
func jsonShape(doc map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode schema document")
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode schema document")
	}

	return out, nil
}

func (p *DirProvider) path(entityName string) (string, error) {
	if entityName == "" || entityName != filepath.Base(entityName) || strings.HasPrefix(entityName, ".") {
		return "", errors.Wrapf(ErrInvalidEntity, "%q", entityName)
	}

	return filepath.Join(p.Dir, p.Client, entityName+docExt), nil
}
