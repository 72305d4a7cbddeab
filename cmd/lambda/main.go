package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"learnboard/infrastructure/config"
	"learnboard/infrastructure/di"
)

var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
	coldStart = true
)

// init runs during cold start
func init() {
	start := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The container lives for the whole execution environment, so its
	// cleanup is never run.
	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	chiRouter, ok := container.Router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(start)))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	container.Logger.Debug("Lambda received request",
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("requestID", req.RequestContext.RequestID),
		zap.Bool("coldStart", coldStart),
	)
	coldStart = false

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if err != nil {
		container.Logger.Error("Request proxy failed", zap.Error(err))
	}
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
