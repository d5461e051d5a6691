package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints env tags can't express.
func (c *Config) Validate() error {
	if c.JWT.SigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY must not be empty")
	}

	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver: %q", c.StorageDriver)
	}

	switch c.Files.Driver {
	case FilesDriverLocal:
	case FilesDriverB2:
		if c.B2.KeyID == "" || c.B2.ApplicationKey == "" || c.B2.Bucket == "" {
			return fmt.Errorf("b2 file driver requires B2_KEY_ID, B2_APPLICATION_KEY and B2_BUCKET")
		}
	default:
		return fmt.Errorf("unknown files driver: %q", c.Files.Driver)
	}

	if c.HTTP.MaxUploadSize <= 0 {
		return fmt.Errorf("HTTP_MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}
