package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"

	FilesDriverLocal = "local"
	FilesDriverB2    = "b2"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env           string `env:"ENV" env-required:"true"`
	HTTP          HTTPConfig
	JWT           JWTConfig
	Auth          AuthConfig
	StorageDriver string `env:"STORAGE_DRIVER" env-default:"postgres"`
	Postgres      PostgresConfig
	SQLite        SQLiteConfig
	Files         FilesConfig
	B2            B2Config
}

type HTTPConfig struct {
	Host              string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port              string        `env:"HTTP_PORT" env-default:"3000"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s"`
	MaxUploadSize     int64         `env:"HTTP_MAX_UPLOAD_SIZE" env-default:"20971520"`
	CORSOrigins       []string      `env:"HTTP_CORS_ORIGINS" env-separator:"," env-default:"*"`
}

type JWTConfig struct {
	Issuer     string `env:"JWT_ISSUER" env-default:"go-task-delivery"`
	SigningKey string `env:"JWT_SIGNING_KEY" env-required:"true"`
}

type AuthConfig struct {
	// AllowAdminSignup lets /register create admin accounts. Turn it off
	// once the first admin exists.
	AllowAdminSignup bool `env:"AUTH_ALLOW_ADMIN_SIGNUP" env-default:"true"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-default:"postgres"`
	Password       string        `env:"POSTGRES_PASSWORD"`
	Database       string        `env:"POSTGRES_DATABASE" env-default:"tasks"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" env-default:"tasks.db"`
}

type FilesConfig struct {
	Driver          string `env:"FILES_DRIVER" env-default:"local"`
	Dir             string `env:"FILES_DIR" env-default:"uploads"`
	PublicDownloads bool   `env:"FILES_PUBLIC_DOWNLOADS" env-default:"true"`
}

type B2Config struct {
	KeyID          string `env:"B2_KEY_ID"`
	ApplicationKey string `env:"B2_APPLICATION_KEY"`
	Bucket         string `env:"B2_BUCKET"`
}
