// Package container wires the service with samber/do. Each *Package function
// registers lazy providers; nothing connects to a backend until it is invoked.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/link-shortener/internal/accounts"
	"github.com/serroba/link-shortener/internal/analytics"
	analyticsstore "github.com/serroba/link-shortener/internal/analytics/store"
	"github.com/serroba/link-shortener/internal/auth"
	"github.com/serroba/link-shortener/internal/handlers"
	"github.com/serroba/link-shortener/internal/health"
	"github.com/serroba/link-shortener/internal/messaging"
	"github.com/serroba/link-shortener/internal/middleware"
	"github.com/serroba/link-shortener/internal/ratelimit"
	"github.com/serroba/link-shortener/internal/shortener"
	"github.com/serroba/link-shortener/internal/store"
	"go.uber.org/zap"
)

const (
	connectTimeout     = 5 * time.Second
	loginAttemptWindow = 15 * time.Minute
	analyticsGroup     = "analytics"
	tokenIssuer        = "link-shortener"
	apiTitle           = "Link Shortener"
	apiVersion         = "1.0.0"
)

// ReservedCodes are path segments taken by fixed routes and never issued as codes.
var ReservedCodes = []string{"health", "docs", "openapi", "schemas"}

// Redis owns the shared client and closes it on injector shutdown.
type Redis struct {
	*redis.Client
}

func (r *Redis) Shutdown() error {
	return r.Close()
}

// Postgres owns the connection pool and closes it on injector shutdown.
type Postgres struct {
	*pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// LoggerPackage provides the zap logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}

		logger.Info("connected to redis", zap.String("addr", opts.RedisAddr))

		return &Redis{Client: client}, nil
	})
}

// PostgresPackage provides the connection pool with migrations applied.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()

			return nil, fmt.Errorf("migrate postgres: %w", err)
		}

		logger.Info("connected to postgres")

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage provides the URL and account repositories for --store.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case BackendRedis:
			return store.NewRedisStore(do.MustInvoke[*Redis](i).Client, opts.Retention()), nil
		case BackendPostgres:
			var repo shortener.Repository = store.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool)

			if opts.CacheTTLSeconds > 0 {
				repo = store.NewRedisCacheRepository(
					repo,
					do.MustInvoke[*Redis](i).Client,
					time.Duration(opts.CacheTTLSeconds)*time.Second,
					do.MustInvoke[*zap.Logger](i),
				)
			}

			return repo, nil
		default:
			return store.NewMemoryStore(), nil
		}
	})

	do.Provide(i, func(i *do.Injector) (accounts.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case BackendRedis:
			return store.NewRedisAccountStore(do.MustInvoke[*Redis](i).Client), nil
		case BackendPostgres:
			return store.NewPostgresAccountStore(do.MustInvoke[*Postgres](i).Pool), nil
		default:
			return store.NewAccountMemoryStore(), nil
		}
	})
}

// ServicePackage provides the URL store, resolver, account service and token issuer.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Store, error) {
		opts := do.MustInvoke[*Options](i)

		generate, err := shortener.NewCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewStore(
			do.MustInvoke[shortener.Repository](i),
			generate,
			shortener.WithMaxAttempts(opts.MaxAttempts),
			shortener.WithReservedCodes(ReservedCodes...),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		return shortener.NewResolver(do.MustInvoke[*shortener.Store](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*accounts.Service, error) {
		return accounts.NewService(do.MustInvoke[accounts.Repository](i))
	})

	do.Provide(i, func(i *do.Injector) (*auth.TokenIssuer, error) {
		opts := do.MustInvoke[*Options](i)
		secret := []byte(opts.JWTSecret)

		if len(secret) == 0 {
			do.MustInvoke[*zap.Logger](i).Warn("no jwt secret configured, tokens will not survive a restart")

			random, err := auth.RandomSecret()
			if err != nil {
				return nil, err
			}

			secret = random
		}

		return auth.NewTokenIssuer(secret, tokenIssuer, time.Duration(opts.TokenTTLHours)*time.Hour)
	})
}

// RateLimitPackage provides the request policy limiter and the login attempt limiter.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		if do.MustInvoke[*Options](i).RateLimitStore == BackendRedis {
			return store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i).Client), nil
		}

		return store.NewRateLimitMemoryStore(), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewPolicyLimiter(
			do.MustInvoke[ratelimit.Store](i),
			ratelimit.DefaultPolicy(int64(opts.RateLimit)),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.SlidingWindowLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewSlidingWindowLimiter(
			do.MustInvoke[ratelimit.Store](i),
			"login",
			int64(opts.LoginAttempts),
			loginAttemptWindow,
		), nil
	})
}

// PublisherGroupPackage provides the event publisher and the typed analytics publishers.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return messaging.NewMemoryPubSub(messaging.NewZapLogger(logger)), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Events == string(messaging.BackendRedis) {
			publisher, err := messaging.NewRedisPublisher(
				do.MustInvoke[*Redis](i).Client,
				messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)),
			)
			if err != nil {
				return nil, err
			}

			return messaging.NewPublisherGroup(publisher), nil
		}

		return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*analytics.Publishers, error) {
		return analytics.NewPublishers(do.MustInvoke[*messaging.PublisherGroup](i).Publisher()), nil
	})
}

// ConsumerGroupPackage provides the analytics consumer group.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.Analytics == BackendRedis {
			return analyticsstore.NewRedisCounter(do.MustInvoke[*Redis](i).Client), nil
		}

		return analyticsstore.NewLog(logger.Named("analytics")), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var subscriber message.Subscriber

		if opts.Events == string(messaging.BackendRedis) {
			sub, err := messaging.NewRedisSubscriber(
				do.MustInvoke[*Redis](i).Client, analyticsGroup, messaging.NewZapLogger(logger),
			)
			if err != nil {
				return nil, err
			}

			subscriber = sub
		} else {
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		analytics.RegisterConsumers(group, do.MustInvoke[analytics.Store](i), logger)

		return group, nil
	})
}

// SweeperPackage provides the expired link sweeper.
func SweeperPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.Sweeper, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.SweepIntervalSeconds <= 0 {
			return nil, fmt.Errorf("sweep interval must be positive, got %d", opts.SweepIntervalSeconds)
		}

		purger, ok := do.MustInvoke[shortener.Repository](i).(store.Purger)
		if !ok {
			return nil, errors.New("the configured store cannot purge expired links")
		}

		return store.NewSweeper(
			purger,
			time.Duration(opts.SweepIntervalSeconds)*time.Second,
			opts.Retention(),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)

		router := chi.NewMux()
		router.Use(chimiddleware.RequestID, chimiddleware.Recoverer)
		router.Use(middleware.CORS(opts.AllowedOrigins()))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		urlStore := do.MustInvoke[*shortener.Store](i)
		tokens := do.MustInvoke[*auth.TokenIssuer](i)

		api := humachi.New(router, huma.DefaultConfig(apiTitle, apiVersion))
		api.UseMiddleware(middleware.RequestMeta(api))

		if opts.RateLimit > 0 {
			api.UseMiddleware(middleware.PolicyRateLimiter(
				api,
				do.MustInvoke[*ratelimit.PolicyLimiter](i),
				ratelimit.NewOperationScopeResolver(),
				logger,
			))
		}

		var attempts handlers.AttemptLimiter
		if opts.LoginAttempts > 0 {
			attempts = do.MustInvoke[*ratelimit.SlidingWindowLimiter](i)
		}

		strategies := map[handlers.Strategy]shortener.Strategy{
			handlers.StrategyToken: shortener.NewTokenStrategy(urlStore),
			handlers.StrategyHash:  shortener.NewHashStrategy(urlStore),
		}

		health.RegisterRoutes(api, health.NewHandler(healthCheckers(i, opts)))
		handlers.RegisterAuthRoutes(api, handlers.NewAuthHandler(
			do.MustInvoke[*accounts.Service](i), tokens, attempts, opts.requestTimeout(), logger,
		))
		handlers.RegisterURLRoutes(api, handlers.NewURLHandler(
			do.MustInvoke[*shortener.Resolver](i),
			opts.PublicBaseURL(),
			strategies,
			do.MustInvoke[*analytics.Publishers](i),
			opts.requestTimeout(),
			urlStore.Now,
			logger,
		), middleware.BearerAuth(api, tokens, opts.RequireAuth))

		if stats, ok := do.MustInvoke[analytics.Store](i).(handlers.StatsReader); ok {
			handlers.RegisterStatsRoutes(api, handlers.NewStatsHandler(stats, opts.requestTimeout(), logger))
		}

		return api, nil
	})
}

func healthCheckers(i *do.Injector, opts *Options) map[string]health.Checker {
	checkers := make(map[string]health.Checker)

	if opts.usesRedis() {
		checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
	}

	if opts.Store == BackendPostgres {
		checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
	}

	return checkers
}
