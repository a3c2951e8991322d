// @title Vidshare
// @version 1.0
// @description Video hosting with upload, viewer pages, gallery and admin.

// @BasePath /
// @schemes http https

// @securityDefinitions.basic BasicAuth
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/database"
	"github.com/weiwangfds/vidshare/internal/i18n"
	"github.com/weiwangfds/vidshare/internal/logger"
	"github.com/weiwangfds/vidshare/internal/middleware"
	"github.com/weiwangfds/vidshare/internal/router"
	oss "github.com/weiwangfds/vidshare/internal/service/oss"
	videoservice "github.com/weiwangfds/vidshare/internal/service/video"
	"golang.org/x/net/http2"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Fatalf("%v", err)
	}

	configPath := os.Getenv("VIDSHARE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}
	i18n.GetInstance().SetDefaultLanguage(cfg.App.Language)

	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("Failed to get sql.DB: %v", err)
	}
	defer sqlDB.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	storage, err := oss.NewProvider(initCtx, cfg.Storage)
	if err != nil {
		cancelInit()
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	if err := storage.TestConnection(initCtx); err != nil {
		// non-fatal
		logger.WithError(err).Warnf("storage provider %s failed its connection test", storage.Name())
	}
	cancelInit()

	r := router.NewRouter(router.Dependencies{
		Config:        cfg,
		Videos:        videoservice.NewService(db, storage, cfg.Storage.KeyPrefix),
		Storage:       storage,
		DB:            sqlDB,
		Authenticator: middleware.NewAccountAuthenticator(cfg.Admin.Accounts),
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r.GetEngine(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	if cfg.Server.EnableHTTPS {
		srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			NextProtos: []string{"http/1.1"},
		}
		if cfg.Server.EnableHTTP2 {
			if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
				logger.Fatalf("Failed to configure HTTP/2: %v", err)
			}
		}
	}

	go func() {
		var err error
		if cfg.Server.EnableHTTPS {
			logger.Infof("HTTPS server listening on %s (HTTP/2: %v)", srv.Addr, cfg.Server.EnableHTTP2)
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			logger.Infof("HTTP server listening on %s", srv.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
