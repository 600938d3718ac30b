package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"alexa-chat-bridge/internal/app"
	"alexa-chat-bridge/internal/config"
	"alexa-chat-bridge/internal/dialogue"
	"alexa-chat-bridge/internal/logging"
	"alexa-chat-bridge/internal/types"
)

// handler adapts the controller to the Lambda invocation signature. Alexa
// invokes the function with the skill request itself, not an API Gateway
// proxy event.
type handler struct {
	ctrl *dialogue.Controller
}

func (h handler) Handle(ctx context.Context, raw json.RawMessage) (types.ResponseEnvelope, error) {
	return h.ctrl.HandleEvent(ctx, raw).Envelope(), nil
}

func main() {
	ctx := context.Background()
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctrl, err := app.NewController(ctx, cfg, logger, app.SSMParams)
	if err != nil {
		logger.Fatal("failed to configure dialogue", zap.Error(err))
	}
	lambda.Start(handler{ctrl: ctrl}.Handle)
}
