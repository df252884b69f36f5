// Command authcore-server serves the authcore account routes over HTTP.
//
// Settings come from the YAML file named by CONFIG_PATH (default
// ./config.yaml) with environment overrides for secrets and connection
// strings.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/config"
	"github.com/MrEthical07/authcore/internal/server"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/middleware"
	"github.com/MrEthical07/authcore/store/gormstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(config.ResolveConfigPath(os.Getenv(config.EnvConfigPath)))
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	logger := newLogger(cfg.Log)

	if err = run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("authcore-server stopped")
	}
}

func newLogger(cfg config.LogConfig) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	if cfg.JSON {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithError(err).Warnf("unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func run(cfg config.Config, logger *log.Logger) error {
	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}

	db, err := gormstore.Open(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		return err
	}
	accounts := gormstore.New(db)
	if err = accounts.AutoMigrate(); err != nil {
		return err
	}
	logger.WithField("dialect", cfg.Database.Dialect).Info("account store ready")

	rdb, closeRedis, err := openRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	builder := authcore.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithAccountStore(accounts).
		WithMailer(newMailer(cfg.Mail, logger)).
		WithLogger(logger)
	if cfg.Auth.AuditLog {
		builder = builder.WithAuditSink(authcore.NewLogrusSink(logger.WithField("component", "audit")))
	}
	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := server.Options{
		Engine:   engine,
		Sessions: middleware.NewSessionManager(engine.Sessions(), middleware.CookieConfig{Secure: cfg.Server.SecureCookies}, logger),
		Logger:   logger,
	}
	if cfg.Server.Metrics {
		opts.Metrics = prometheus.NewPrometheusExporter(engine).Handler()
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           server.New(opts).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("listen", cfg.Server.Listen).Info("authcore-server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openRedis connects to the configured Redis, or starts an in-process one
// when no address is set.
func openRedis(cfg config.RedisConfig, logger log.FieldLogger) (redis.UniversalClient, func(), error) {
	if cfg.Addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("addr", mr.Addr()).Warn("no redis address configured, using in-process redis")
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return rdb, func() {
			_ = rdb.Close()
			mr.Close()
		}, nil
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return rdb, func() { _ = rdb.Close() }, nil
}

func newMailer(cfg config.MailConfig, logger log.FieldLogger) mail.Sender {
	if cfg.ResendAPIKey == "" {
		logger.Warn("no resend api key configured, mail is logged instead of sent")
		return mail.NewLogSender(logger)
	}
	sender, err := mail.NewResendSender(cfg.ResendAPIKey, cfg.From)
	if err != nil {
		logger.WithError(err).Warn("resend sender unavailable, mail is logged instead of sent")
		return mail.NewLogSender(logger)
	}
	return sender
}
