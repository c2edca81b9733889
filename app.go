package main

import (
	"context"
	"database/sql"

	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/cache"
	transcriptclient "github.com/naoterumaker/youtube-transcriber/infrastructure/clients/transcript"
	youtubeclient "github.com/naoterumaker/youtube-transcriber/infrastructure/clients/youtube"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/configuration"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/credential"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/persistence"
	"github.com/naoterumaker/youtube-transcriber/usecase"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// app owns the infrastructure shared by the commands. Optional parts stay
// nil when they are not configured or unreachable.
type app struct {
	config *configuration.Config
	redis  *redis.Client
	db     *sql.DB
	store  repository.IHarvestStore
}

func newApp(ctx context.Context, config *configuration.Config, withStore bool) *app {
	logger.Configure(config.Logger.Format, config.Logger.Level, nil)
	a := &app{config: config}

	if rc := config.RedisClient; rc.Enabled() {
		client, err := cache.NewCache(ctx, rc.Addr(), rc.Username, rc.Password, rc.DB)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without transcript cache")
		} else {
			a.redis = client
			logger.GetLogger().WithField("addr", rc.Addr()).Info("Redis client initialized successfully.")
		}
	}

	if db := config.Database.Psql; withStore && db.Enabled() {
		conn, err := persistence.NewPostgreSQLDB(db)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("PostgreSQL not available - harvest runs will not be stored")
		} else if err := persistence.EnsureHarvestSchema(ctx, conn); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring harvest schema")
			_ = conn.Close()
		} else {
			a.db = conn
			a.store = persistence.NewHarvestRepository(conn)
			logger.GetLogger().WithField("host", db.Host).Info("PostgreSQL connected")
		}
	}
	return a
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// transcriptFetcher needs no API key; it scrapes the public watch page.
func (a *app) transcriptFetcher() *usecase.TranscriptFetcher {
	provider := transcriptclient.NewTranscriptClient(&transcriptclient.Config{
		BaseURL:           a.config.Transcript.BaseURL,
		RequestsPerSecond: a.config.Transcript.RequestsPerSecond,
		Timeout:           a.config.Transcript.Timeout,
	})
	fetcher := usecase.NewTranscriptFetcher(provider, a.config.YouTube.Languages)
	if a.redis != nil {
		fetcher = fetcher.WithCache(cache.NewTranscriptCache(a.redis, a.config.RedisClient.TTL))
	}
	return fetcher
}

// harvestUseCase wires the Data API client behind the credential pool.
func (a *app) harvestUseCase(sinks ...repository.IHarvestSink) (*usecase.HarvestUseCase, error) {
	creds, err := configuration.Credentials(a.config, nil)
	if err != nil {
		return nil, err
	}
	pool, err := credential.NewPool(creds)
	if err != nil {
		return nil, err
	}
	var opts []credential.Option
	if rps := a.config.Harvest.RequestsPerSecond; rps > 0 {
		opts = append(opts, credential.WithLimiter(rate.NewLimiter(rate.Limit(rps), 1)))
	}
	invoker := credential.NewInvoker(pool, youtubeclient.Classify, opts...)
	logger.GetLogger().WithField("credentials", pool.Size()).Info("Credential pool ready")

	youtubeRepo := youtubeclient.NewYouTubeClient(&youtubeclient.Config{Endpoint: a.config.YouTube.Endpoint})
	uc := usecase.NewHarvestUseCase(youtubeRepo, a.transcriptFetcher(), invoker, usecase.HarvestConfig{
		PageDelay:   a.config.Harvest.PageDelay,
		VideoDelay:  a.config.Harvest.VideoDelay,
		Concurrency: a.config.Harvest.Concurrency,
	})
	return uc.WithSinks(sinks...), nil
}
