package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"alexa-chat-bridge/internal/completion"
	"alexa-chat-bridge/internal/config"
	"alexa-chat-bridge/internal/dialogue"
	"alexa-chat-bridge/internal/paramstore"
	"alexa-chat-bridge/internal/store"
)

// ParamSource opens a parameter store. It is only called when the API key
// has to be fetched, so local runs never touch AWS.
type ParamSource func(ctx context.Context) (paramstore.Getter, error)

// SSMParams reads parameters from AWS SSM using the default credential chain.
func SSMParams(ctx context.Context) (paramstore.Getter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load aws config: %w", err)
	}
	client, err := paramstore.New(ssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewController wires the store, gateway and dialogue controller from cfg.
func NewController(ctx context.Context, cfg config.Config, log *zap.Logger, params ParamSource) (*dialogue.Controller, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.OpenAIAPIKey == "" && cfg.OpenAIAPIKeyParam != "" {
		if params == nil {
			params = SSMParams
		}
		getter, err := params(ctx)
		if err != nil {
			return nil, err
		}
		if err := cfg.ResolveAPIKey(ctx, getter); err != nil {
			return nil, err
		}
		log.Info("api key loaded from parameter store", zap.String("param", cfg.OpenAIAPIKeyParam))
	}
	oauth := completion.OAuthConfig{
		TokenURL:     cfg.OAuthTokenURL,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		Scopes:       cfg.OAuthScopes,
	}
	if cfg.OpenAIAPIKey == "" && !oauth.Enabled() {
		log.Warn("OPENAI_API_KEY is not set; completions will fail until provided")
	}

	profile, err := completion.LoadProfile(cfg.AssistantProfile)
	if err != nil {
		return nil, err
	}

	client, err := completion.NewClient(completion.ClientConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		OAuth:   oauth,
	})
	if err != nil {
		return nil, err
	}
	gateway, err := completion.NewGateway(client, completion.Settings{
		Model:       cfg.Model,
		Temperature: profile.Style.Temperature,
		MaxTokens:   profile.Style.MaxTokens,
		Timeout:     cfg.CompletionTimeout,
	})
	if err != nil {
		return nil, err
	}

	log.Info("dialogue configured",
		zap.String("model", gateway.Settings().Model),
		zap.Duration("timeout", gateway.Settings().Timeout),
		zap.Int("max_transcript_turns", cfg.MaxTranscriptTurns),
		zap.String("profile", cfg.AssistantProfile),
	)
	return dialogue.NewController(
		store.NewMemoryStore(cfg.MaxTranscriptTurns),
		gateway,
		log,
		dialogue.WithSystemPrompt(profile.System),
	)
}
