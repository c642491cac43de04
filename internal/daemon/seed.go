package daemon

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/schema"
)

// seed copies every options document of the schema dir into the database provider. A missing dir seeds
// nothing.
func seed(ctx context.Context, dir *schema.DirProvider, db *schema.DBProvider) error {
	names, err := dir.Entities()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("dir", dir.Dir).Msg("no schema dir to seed from")
			return nil
		}

		return err
	}

	for _, name := range names {
		doc, err := dir.Options(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "failed to read schema of %s", name)
		}

		if err := db.Store(ctx, name, doc); err != nil {
			return err
		}

		log.Debug().Str("entity", name).Msg("seeded schema")
	}

	return nil
}
