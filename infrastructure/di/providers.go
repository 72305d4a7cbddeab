package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/application/services"
	"learnboard/infrastructure/cache"
	"learnboard/infrastructure/config"
	"learnboard/infrastructure/messaging/eventbridge"
	"learnboard/infrastructure/persistence/badgerstore"
	"learnboard/infrastructure/persistence/dynamodb"
	"learnboard/infrastructure/persistence/store"
	"learnboard/infrastructure/persistence/table"
	"learnboard/interfaces/http/rest/handlers"
	"learnboard/pkg/auth"
	"learnboard/pkg/observability"
)

const serviceName = "learnboard"

// Logging pairs the process logger with its adjustable level.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ProvideLogging builds the logger for the configured environment.
func ProvideLogging(cfg *config.Config) (*Logging, func(), error) {
	logger, level, err := observability.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }
	return &Logging{Logger: logger, Level: level}, cleanup, nil
}

// ProvideLogger extracts the logger.
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideLogLevel extracts the adjustable level.
func ProvideLogLevel(l *Logging) zap.AtomicLevel {
	return l.Level
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, honouring the endpoint
// override used with LocalStack and DynamoDB Local.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpointURL)
		}
	})
}

// ProvideMetrics returns the Prometheus collector, or nil when metrics are
// disabled.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(serviceName)
}

// ProvideTracer creates the X-Ray tracer.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideTable opens the storage driver selected by STORE_DRIVER.
func ProvideTable(
	client *awsdynamodb.Client,
	cfg *config.Config,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (table.Table, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverBadger:
		tbl, err := badgerstore.Open(badgerstore.Options{Path: cfg.BadgerPath}, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := tbl.Close(); err != nil {
				logger.Error("Failed to close badger table", zap.Error(err))
			}
		}
		return tbl, cleanup, nil

	case config.StoreDriverDynamoDB:
		opts := []dynamodb.Option{
			dynamodb.WithMetrics(metrics),
			dynamodb.WithTracer(tracer),
		}
		if cfg.CircuitBreakerEnabled {
			breaker := dynamodb.NewCircuitBreaker(dynamodb.DefaultCircuitBreakerConfig(cfg.TableName), logger, metrics)
			opts = append(opts, dynamodb.WithCircuitBreaker(breaker))
		}
		return dynamodb.NewTable(client, cfg.TableName, logger, opts...), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// ProvidePinger exposes the table to the readiness check.
func ProvidePinger(t table.Table) handlers.Pinger {
	return t
}

// ProvideRedisClient connects to REDIS_ADDR. It returns a nil client when no
// address is configured.
func ProvideRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return client, func() { _ = client.Close() }, nil
}

// ProvideCache shares boards through Redis when available and keeps them in
// process otherwise.
func ProvideCache(client *redis.Client, logger *zap.Logger) (ports.Cache, func()) {
	if client != nil {
		return cache.NewRedisCache(client, serviceName+":", logger), func() {}
	}
	c := cache.NewInMemoryCache()
	return c, func() { _ = c.Close() }
}

// ProvideRateLimiter limits auth endpoints per client IP, across instances
// when Redis is available.
func ProvideRateLimiter(client *redis.Client, cfg *config.Config) (auth.RateLimiter, func()) {
	if client != nil {
		return auth.NewRedisRateLimiter(client, cfg.RateLimitRPM, time.Minute, serviceName+":ratelimit:"), func() {}
	}
	l := auth.NewIPRateLimiter(cfg.RateLimitRPM)
	return l, l.Close
}

// ProvideEventPublisher publishes to EventBridge when events are enabled.
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return eventbridge.NewNoopPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideAuthenticator creates the JWT authenticator.
func ProvideAuthenticator(cfg *config.Config) (*auth.Authenticator, error) {
	return auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry)
}

// ProvidePasswordHasher uses the default bcrypt cost.
func ProvidePasswordHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(0)
}

// ProvideUserRepository creates a user repository
func ProvideUserRepository(t table.Table, logger *zap.Logger) ports.UserRepository {
	return store.NewUserRepository(t, logger)
}

// ProvideTopicRepository creates a topic repository
func ProvideTopicRepository(t table.Table, tr *store.TranslationResolver, logger *zap.Logger) ports.TopicRepository {
	return store.NewTopicRepository(t, tr, logger)
}

// ProvideLevelRepository creates a level repository
func ProvideLevelRepository(t table.Table, tr *store.TranslationResolver, logger *zap.Logger) ports.LevelRepository {
	return store.NewLevelRepository(t, tr, logger)
}

// ProvideExerciseRepository creates an exercise repository
func ProvideExerciseRepository(t table.Table, tr *store.TranslationResolver, logger *zap.Logger) ports.ExerciseRepository {
	return store.NewExerciseRepository(t, tr, logger)
}

// ProvideTranslationRepository exposes the resolver through its port.
func ProvideTranslationRepository(tr *store.TranslationResolver) ports.TranslationRepository {
	return tr
}

// ProvideProgressRepository creates a progress repository
func ProvideProgressRepository(t table.Table, logger *zap.Logger) ports.ProgressRepository {
	return store.NewProgressRepository(t, logger)
}

// ProvideLanguageRepository creates a language repository
func ProvideLanguageRepository(t table.Table, logger *zap.Logger) ports.LanguageRepository {
	return store.NewLanguageRepository(t, logger)
}

// ProvideLeaderboardService creates the leaderboard service with the
// configured cache lifetime.
func ProvideLeaderboardService(
	progress ports.ProgressRepository,
	levels ports.LevelRepository,
	users ports.UserRepository,
	boardCache ports.Cache,
	cfg *config.Config,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.LeaderboardService {
	return services.NewLeaderboardService(progress, levels, users, boardCache, cfg.LeaderboardCacheTTL, metrics, tracer, logger)
}

// ProvideProgressService creates the progress service; submits invalidate
// the leaderboard cache.
func ProvideProgressService(
	progress ports.ProgressRepository,
	publisher ports.EventPublisher,
	boards *services.LeaderboardService,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.ProgressService {
	return services.NewProgressService(progress, publisher, boards, metrics, logger)
}
