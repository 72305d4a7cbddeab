// Command setup-table creates the content table with its secondary indexes
// and can seed the language catalogue. Running it against an existing table
// is safe.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"learnboard/domain/core/entities"
	"learnboard/infrastructure/config"
	"learnboard/infrastructure/di"
	"learnboard/infrastructure/persistence/dynamodb"
	"learnboard/infrastructure/persistence/store"
	"learnboard/pkg/observability"
)

var defaultLanguages = []entities.Language{
	{Code: "pt_BR", Name: "Portuguese (Brazil)", NativeName: "Português (Brasil)", IsActive: true},
	{Code: "es", Name: "Spanish", NativeName: "Español", IsActive: true},
	{Code: "en", Name: "English", NativeName: "English", IsActive: true},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tableName := flag.String("table", cfg.TableName, "DynamoDB table name")
	region := flag.String("region", cfg.AWSRegion, "AWS region")
	endpoint := flag.String("endpoint", cfg.DynamoEndpointURL, "DynamoDB endpoint override")
	seed := flag.Bool("seed-languages", false, "insert the default languages")
	flag.Parse()

	cfg.TableName = *tableName
	cfg.AWSRegion = *region
	cfg.DynamoEndpointURL = *endpoint

	logger, _, err := observability.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to load AWS configuration", zap.Error(err))
	}
	client := di.ProvideDynamoDBClient(awsCfg, cfg)

	created, err := dynamodb.EnsureTable(ctx, client, cfg.TableName, logger)
	if err != nil {
		logger.Fatal("Failed to create table", zap.String("tableName", cfg.TableName), zap.Error(err))
	}
	logger.Info("Table ready", zap.String("tableName", cfg.TableName), zap.Bool("created", created))

	if !*seed {
		return
	}

	languages := store.NewLanguageRepository(dynamodb.NewTable(client, cfg.TableName, logger), logger)
	now := time.Now().UTC()
	for _, lang := range defaultLanguages {
		lang.CreatedAt = now
		if err := languages.Put(ctx, &lang); err != nil {
			logger.Fatal("Failed to seed language", zap.String("code", lang.Code), zap.Error(err))
		}
		logger.Info("Language seeded", zap.String("code", lang.Code))
	}
}
