package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-task-delivery/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage_driver", cfg.StorageDriver).
		Str("files_driver", cfg.Files.Driver).
		Bool("public_downloads", cfg.Files.PublicDownloads).
		Bool("admin_signup", cfg.Auth.AllowAdminSignup).
		Msg("read env")

	if cfg.Env == config.EnvProd && cfg.Auth.AllowAdminSignup {
		globalLogger.Warn().
			Msg("anyone can register as admin, set AUTH_ALLOW_ADMIN_SIGNUP=false once the first admin exists")
	}

	config.SetGlobal(cfg)
}
