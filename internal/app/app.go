package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpapp "coffee_configurator/internal/app/http"
	"coffee_configurator/internal/clients/download"
	"coffee_configurator/internal/clients/ozon"
	"coffee_configurator/internal/clients/seafile"
	"coffee_configurator/internal/clients/telegram"
	"coffee_configurator/internal/config"
	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/lib/session"
	"coffee_configurator/internal/repository"
	"coffee_configurator/internal/services/auth"
	importservice "coffee_configurator/internal/services/import_service"
	leadservice "coffee_configurator/internal/services/lead_service"
	machineservice "coffee_configurator/internal/services/machine_service"
	mediaservice "coffee_configurator/internal/services/media_service"
	specservice "coffee_configurator/internal/services/spec_service"
	filestorage "coffee_configurator/internal/storage/filestorage"
	"coffee_configurator/internal/storage/postgresql"
	redisapp "coffee_configurator/internal/storage/redis"
	httprouters "coffee_configurator/internal/transport/http"
)

const memoryCacheCleanup = 10 * time.Minute

type App struct {
	HTTPServer *httpapp.Server

	Storage  *postgresql.Storage
	Machines *machineservice.MachineService
	Specs    *specservice.SpecService

	redis *redisapp.Client
}

// New подключается к Postgres, применяет схему и собирает сервисы и HTTP-сервер.
func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	storage, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := storage.Migrate(ctx); err != nil {
		storage.Stop()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &App{Storage: storage}

	repo := repository.NewRepository(storage.DB())

	var cache repository.CacheRepository
	if cfg.Redis.RedisAddr != "" {
		a.redis = redisapp.New(redisapp.Options{
			Addr:     cfg.Redis.RedisAddr,
			Password: cfg.Redis.RedisPassword,
			DB:       cfg.Redis.RedisDB,
		})
		if err := a.redis.HealthCheck(ctx); err != nil {
			log.Warn("redis unavailable, cache falls back to memory", slog.String("addr", cfg.Redis.RedisAddr), sl.Err(err))
			_ = a.redis.Close()
			a.redis = nil
		}
	}
	if a.redis != nil {
		cache = repository.NewRedisCacheRepo(a.redis)
	} else {
		cache = repository.NewMemoryCacheRepo(memoryCacheCleanup)
	}

	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Media.CacheDir, cfg.Media.BaseURL)
	if err != nil {
		storage.Stop()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		seafileClient  mediaservice.SeafileClient
		seafileBrowser httprouters.SeafileBrowser
	)
	if cfg.Seafile.Enabled() {
		client := seafile.New(cfg.Seafile.Server, cfg.Seafile.RepoID, cfg.Seafile.Token)
		seafileClient = client
		seafileBrowser = client
	} else {
		log.Warn("seafile is not configured, media from seafile paths is skipped")
	}

	var prices machineservice.PriceClient
	if cfg.Ozon.Enabled() {
		prices = ozon.New(cfg.Ozon.BaseURL, cfg.Ozon.ClientID, cfg.Ozon.APIKey)
	}

	var notifier leadservice.Notifier
	if cfg.Telegram.Enabled() {
		notifier = telegram.New(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	mediaService := mediaservice.NewMediaService(
		log,
		fileStorage,
		seafileClient,
		download.New(!cfg.Media.VerifyTLS),
		cache,
		cfg.Media.LinkTTL,
	)

	a.Machines = machineservice.NewMachineService(log, repo.Machine, mediaService, prices, cache, cfg.Ozon.PriceTTL)
	a.Specs = specservice.NewSpecService(log, repo.Spec, repo.Machine)

	authService := auth.New(log, auth.Credentials{
		Username:     cfg.Admin.Username,
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
	}, session.NewSigner(cfg.Admin.Secret, cfg.Admin.SessionTTL))

	routers := httprouters.NewRouter(
		log,
		cfg.Admin.CookieName,
		authService,
		a.Machines,
		a.Specs,
		leadservice.NewLeadService(log, repo.Lead, notifier),
		importservice.NewImportService(log, repo.Machine),
		mediaService,
		seafileBrowser,
	)

	checks := map[string]httpapp.HealthCheck{
		"database": storage.Ping,
	}
	if a.redis != nil {
		checks["redis"] = a.redis.HealthCheck
	}

	a.HTTPServer = httpapp.New(log, httpapp.Options{
		Host:           cfg.HTTP.Host,
		Port:           cfg.HTTP.Port,
		AllowedOrigins: cfg.Origins(),
		StaticDir:      cfg.StaticDir,
		LeadRateLimit:  cfg.LeadRateLimit,
		HealthChecks:   checks,
	}, routers)

	return a, nil
}

// Close освобождает соединения с Postgres и Redis.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.Storage.Stop()
}
