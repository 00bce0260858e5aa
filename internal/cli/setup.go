package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/XadielF/hipotrack/common/id"
	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/core/config"
	"github.com/XadielF/hipotrack/core/db"
	"github.com/XadielF/hipotrack/internal/backend"
	"github.com/XadielF/hipotrack/internal/feed"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/store"
)

// session bundles the running client with the connections behind it.
type session struct {
	client *messaging.Client
	viewer *model.User

	database *db.DB
	redis    *redis.Client
}

// connect builds the full client stack: config, database, feed
// subscription, then starts the synchronization core for the viewer.
func connect(ctx context.Context, opts ...messaging.Option) (*session, error) {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger.Setup(cfg)

	// Node id 2 keeps CLI-minted temp ids disjoint from server rows.
	if err := id.Init(2); err != nil {
		return nil, fmt.Errorf("initializing id generator: %w", err)
	}

	email := viewerEmail
	if email == "" {
		email = os.Getenv("HIPOTRACK_USER")
	}
	if email == "" {
		return nil, errors.New("no user given: pass --user or set HIPOTRACK_USER")
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Feed.RedisURL)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		database.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	stores := store.NewStores(database.Pool())

	viewer, err := stores.Users().GetByEmail(ctx, email)
	if err != nil {
		database.Close()
		redisClient.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no user with email %s", email)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	publisher := feed.NewRedisPublisher(redisClient, cfg.Feed.Stream, nil)
	pg := backend.NewPostgres(stores, backend.NewTxRunner(database), publisher, cfg.Storage.PublicBaseURL)
	subscriber := feed.NewSubscriber(redisClient, cfg.Feed.Stream)

	client := messaging.NewClient(pg, subscriber, opts...)
	if err := client.Start(ctx, viewer); err != nil {
		database.Close()
		redisClient.Close()
		return nil, fmt.Errorf("starting client: %w", err)
	}

	return &session{
		client:   client,
		viewer:   viewer,
		database: database,
		redis:    redisClient,
	}, nil
}

func (s *session) Close() {
	s.client.Close()
	s.redis.Close()
	s.database.Close()
}
