package di

import (
	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/infrastructure/config"
	"learnboard/infrastructure/persistence/table"
	"learnboard/interfaces/http/rest"
	"learnboard/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	LogLevel  zap.AtomicLevel
	Table     table.Table
	Metrics   *observability.Collector
	Cache     ports.Cache
	Publisher ports.EventPublisher
	Services  rest.Services
	Router    *rest.Router
}
