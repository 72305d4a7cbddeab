//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"learnboard/application/services"
	"learnboard/infrastructure/config"
	"learnboard/infrastructure/persistence/store"
	"learnboard/interfaces/http/rest"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideLogLevel,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideMetrics,
	ProvideTracer,
	ProvideTable,
	ProvidePinger,
	ProvideRedisClient,
	ProvideCache,
	ProvideRateLimiter,
	ProvideEventPublisher,
	ProvideAuthenticator,
	ProvidePasswordHasher,
	store.NewTranslationResolver,
	ProvideTranslationRepository,
	ProvideUserRepository,
	ProvideTopicRepository,
	ProvideLevelRepository,
	ProvideExerciseRepository,
	ProvideProgressRepository,
	ProvideLanguageRepository,
	services.NewAuthService,
	services.NewContentService,
	ProvideLeaderboardService,
	ProvideProgressService,
	wire.Struct(new(rest.Services), "*"),
	rest.NewRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// releases the table, Redis and background goroutines in reverse order.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
