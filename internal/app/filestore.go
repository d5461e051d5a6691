package app

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/adanyl0v/go-task-delivery/internal/config"
	"github.com/adanyl0v/go-task-delivery/internal/filestore"
)

var globalFileStore filestore.Store

func MustInitFileStore() {
	cfg := config.Global()
	switch cfg.Files.Driver {
	case config.FilesDriverLocal:
		store, err := filestore.NewLocal(afero.NewOsFs(), cfg.Files.Dir)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("dir", cfg.Files.Dir).
				Msg("failed to init local file store")
			panic(err)
		}
		globalFileStore = store
		globalLogger.Info().
			Str("dir", cfg.Files.Dir).
			Msg("initialized local file store")
	case config.FilesDriverB2:
		store, err := filestore.NewB2(context.Background(),
			cfg.B2.KeyID, cfg.B2.ApplicationKey, cfg.B2.Bucket)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("bucket", cfg.B2.Bucket).
				Msg("failed to init b2 file store")
			panic(err)
		}
		globalFileStore = store
		globalLogger.Info().
			Str("bucket", cfg.B2.Bucket).
			Msg("initialized b2 file store")
	default:
		err := fmt.Errorf("unknown files driver: %s", cfg.Files.Driver)
		globalLogger.Error().
			Err(err).
			Msg("failed to init file store")
		panic(err)
	}
}
