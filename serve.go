package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"articles/internal/app"
	"articles/internal/config"
	"articles/internal/database"
	"articles/internal/services"
	"articles/internal/session"
	"articles/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	consumerTag     = "articles-event-log"
	shutdownTimeout = 10 * time.Second
)

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (*config.Config, *zap.SugaredLogger, *gorm.DB, error) {
	v, err := config.New(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := app.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, log.Named("gorm"), cfg.LogLevel == "debug")
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("database schema is up to date")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store session.Store
	if cfg.RedisAddr != "" {
		client, err := session.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		store = session.NewRedisStore(client)
		log.Infow("sessions stored in redis", "addr", cfg.RedisAddr)
	} else {
		store = session.NewMemoryStore()
		log.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}
	sessions := session.NewManager(store, cfg.SessionCookie, cfg.SessionTTL)

	var (
		mqClient  *rabbitmq.Client
		publisher services.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return err
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Warn("RABBITMQ_URL not set, article events are disabled")
	}

	srv := app.New(app.Deps{
		Config:    cfg,
		DB:        db,
		Sessions:  sessions,
		Publisher: publisher,
		Logger:    log,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("starting server", "addr", cfg.Port, "env", cfg.Env)
		return srv.Listen(cfg.Port)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.ShutdownWithContext(shutdownCtx)
	})

	g.Go(func() error {
		pruneTokens(gctx, srv.Auth, cfg.TokenPruneInterval, log)
		return nil
	})

	if mqClient != nil {
		g.Go(func() error {
			log.Infow("starting event consumer", "queue", rabbitmq.DefaultQueue)
			if err := mqClient.Consume(gctx, consumerTag, logArticleEvent(log)); err != nil {
				log.Errorw("event consumer stopped", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server gracefully stopped")
	return nil
}

// pruneTokens deletes expired tokens every interval until ctx is done.
func pruneTokens(ctx context.Context, auth *services.AuthService, interval time.Duration, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PruneExpired(ctx)
			if err != nil {
				log.Errorw("failed to prune expired tokens", "error", err)
				continue
			}
			if n > 0 {
				log.Infow("pruned expired tokens", "count", n)
			}
		}
	}
}

// logArticleEvent records each article event delivered from the queue.
func logArticleEvent(log *zap.SugaredLogger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.ArticleEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Warnw("discarding malformed event", "delivery_tag", msg.DeliveryTag, "error", err)
			return fmt.Errorf("decode %s event: %w", msg.Type, err)
		}
		log.Infow("article event",
			"type", event.Type,
			"article_id", event.ArticleID,
			"user_id", event.UserID,
			"published", event.Published,
		)
		return nil
	}
}
