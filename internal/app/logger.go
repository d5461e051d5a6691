package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-delivery/internal/config"
)

const serviceName = "go-task-delivery"

var globalLogger zerolog.Logger

func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	globalLogger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Int("pid", os.Getpid()).
		Logger()

	globalLogger.Info().Msg("initialized default logger")
}

func MustInitApplicationLogger() {
	cfg := config.Global()

	level, w, err := applicationLogOutput(cfg.Env, os.Stdout)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("env", cfg.Env).
			Msg("unknown env")
		panic(err)
	}
	zerolog.SetGlobalLevel(level)

	// gin's access log shares the application output.
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w

	globalLogger = globalLogger.Output(w)
	globalLogger.Info().
		Str("level", level.String()).
		Msg("initialized application logger")
}

// applicationLogOutput picks the log level and writer for env. Local runs
// log everything to a human readable console writer.
func applicationLogOutput(env string, out io.Writer) (zerolog.Level, io.Writer, error) {
	switch env {
	case config.EnvDev:
		return zerolog.DebugLevel, out, nil
	case config.EnvProd:
		return zerolog.InfoLevel, out, nil
	case config.EnvLocal:
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = out
		return zerolog.TraceLevel, consoleWriter, nil
	default:
		return zerolog.NoLevel, nil, fmt.Errorf("unknown env: %s", env)
	}
}
