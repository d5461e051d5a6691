package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-delivery/internal/config"
	"github.com/adanyl0v/go-task-delivery/internal/delivery/http/v1"
	"github.com/adanyl0v/go-task-delivery/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(newCORSMiddleware(httpCfg.CORSOrigins))
	router.MaxMultipartMemory = httpCfg.MaxUploadSize
	mustRegisterRoutes(router)

	server := &http.Server{
		Addr:              net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	// kill -9 can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func newCORSMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.ExposeHeaders = []string{"Content-Disposition"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return cors.New(corsCfg)
}

func mustRegisterRoutes(router gin.IRouter) {
	cfg := config.Global()

	tokenService, err := services.NewTokenService(cfg.JWT.Issuer, []byte(cfg.JWT.SigningKey))
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to init token service")
		panic(err)
	}

	opts := v1.Options{
		MaxUploadSize:      cfg.HTTP.MaxUploadSize,
		PublicDownloads:    cfg.Files.PublicDownloads,
		DisableAdminSignup: !cfg.Auth.AllowAdminSignup,
	}
	v1Handler := v1.New(
		globalLogger,
		tokenService,
		services.NewAuthService(globalLogger, globalStore, tokenService),
		services.NewTaskService(globalLogger, globalStore),
		services.NewSubtaskService(globalLogger, globalStore, globalStore),
		services.NewSubmissionService(globalLogger, globalStore, globalStore, globalFileStore),
		services.NewStatsService(globalLogger, globalStore),
		opts,
	)
	v1.RegisterRoutes(router.Group("/api"), v1Handler, opts)
}
