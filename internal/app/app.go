// Package app builds the deletion engine and its collaborators from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gin-gonic/gin"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/api"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/cache"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/cascade"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/config"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/events"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/media"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/services"
)

// App owns the long-lived connections of the service.
type App struct {
	Config   config.Config
	Database *db.Database
	Cache    *cache.Client
	Engine   *cascade.Engine
	cleanup  *services.CleanupService
}

// New connects to PostgreSQL and Redis and assembles the engine. Only the
// database is required; without Redis, cache invalidation is skipped.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Database: database}

	if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, database.Pool); err != nil {
			database.Close()
			return nil, err
		}
	}

	store, err := newMediaStore(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	var deleter cache.Deleter
	client, err := cache.Connect(ctx, cache.ConnectOptions{
		Stages: []cache.Stage{
			{Name: "local", URL: cfg.RedisLocalURL},
			{Name: "cloud", URL: cfg.RedisURL},
		},
		Retries:      cfg.RedisConnectRetries,
		InitialDelay: 500 * time.Millisecond,
	})
	var connErr *cache.ConnectionError
	switch {
	case err == nil:
		a.Cache = client
		deleter = client
	case errors.As(err, &connErr):
		logging.LogKV(logging.LevelWarn, "cache unavailable, invalidation disabled", logging.Fields{"error": err})
	default:
		database.Close()
		return nil, err
	}

	opts := []cascade.Option{cascade.WithInvalidator(cache.NewInvalidator(deleter))}
	if cfg.EventsTopicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logging.LogKV(logging.LevelWarn, "SNS config load failed, deletion events disabled", logging.Fields{"error": err})
		} else {
			opts = append(opts, cascade.WithNotifier(events.NewPublisher(awsCfg, cfg.EventsTopicARN)))
		}
	}

	a.Engine = cascade.NewEngine(db.NewCatalogStore(database), media.NewPruner(store), opts...)
	return a, nil
}

func newMediaStore(ctx context.Context, cfg config.Config) (media.Store, error) {
	if cfg.MediaBucket == "" {
		return media.NewLocalStore(cfg.UploadsDir, cfg.UploadsDefaultSubdir), nil
	}
	s3Store, err := media.NewS3Store(ctx, cfg.AWSRegion, cfg.MediaBucket, cfg.AssetsCDNBaseURL, cfg.UploadsDefaultSubdir)
	if err != nil {
		return nil, fmt.Errorf("failed to set up media bucket: %w", err)
	}
	return s3Store, nil
}

// Router returns the HTTP surface of the service.
func (a *App) Router() *gin.Engine {
	var opts []api.HandlerOption
	if a.Cache != nil {
		opts = append(opts, api.WithCache(a.Cache))
	}
	h := api.NewHandler(a.Engine, a.Database, a.Database, opts...)
	return api.NewRouter(h, api.RouterOptions{JWTSecret: a.Config.JWTSecret, CORSOrigins: a.Config.CORSOrigins})
}

// StartCleanup starts the periodic orphan sweep unless it is disabled.
func (a *App) StartCleanup() {
	if a.Config.CleanupInterval <= 0 {
		logging.LogKV(logging.LevelInfo, "cleanup service disabled", nil)
		return
	}
	a.cleanup = services.NewCleanupService(a.Database, a.Config.CleanupInterval)
	a.cleanup.Start()
}

// Close stops background work and releases connections.
func (a *App) Close() {
	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	a.Database.Close()
}
