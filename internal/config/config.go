package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"alexa-chat-bridge/internal/paramstore"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// OpenAI
	OpenAIAPIKey      string
	OpenAIAPIKeyParam string
	OpenAIBaseURL     string
	Model             string
	CompletionTimeout time.Duration
	// Optional client-credentials auth in front of the provider
	OAuthTokenURL     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthScopes       []string
	// Conversation
	MaxTranscriptTurns int
	AssistantProfile   string
	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the environment, after merging in the given .env files (or
// ./.env when none are named). Missing files are not an error.
func Load(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)
	return Config{
		Port:               getEnvDefault("PORT", "5060"),
		AllowedOrigin:      getEnvDefault("ALLOWED_ORIGIN", "*"),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIAPIKeyParam:  os.Getenv("OPENAI_API_KEY_PARAM"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		Model:              getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		CompletionTimeout:  getEnvDurationDefault("COMPLETION_TIMEOUT", 7*time.Second),
		OAuthTokenURL:      os.Getenv("OPENAI_OAUTH_TOKEN_URL"),
		OAuthClientID:      os.Getenv("OPENAI_OAUTH_CLIENT_ID"),
		OAuthClientSecret:  os.Getenv("OPENAI_OAUTH_CLIENT_SECRET"),
		OAuthScopes:        getEnvListDefault("OPENAI_OAUTH_SCOPES", nil),
		MaxTranscriptTurns: getEnvIntDefault("MAX_TRANSCRIPT_TURNS", 41),
		AssistantProfile:   getEnvDefault("ASSISTANT_PROFILE", "prompts/assistant.yaml"),
		LogLevel:           getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvDefault("LOG_FORMAT", "json"),
	}
}

// ResolveAPIKey fills OpenAIAPIKey from Parameter Store when
// OPENAI_API_KEY_PARAM names a parameter. An explicit OPENAI_API_KEY wins.
func (c *Config) ResolveAPIKey(ctx context.Context, params paramstore.Getter) error {
	if c.OpenAIAPIKey != "" || strings.TrimSpace(c.OpenAIAPIKeyParam) == "" {
		return nil
	}
	if params == nil {
		return errors.New("config: OPENAI_API_KEY_PARAM is set but no parameter store is available")
	}
	key, err := params.GetParameter(ctx, c.OpenAIAPIKeyParam)
	if err != nil {
		return fmt.Errorf("config: resolve api key: %w", err)
	}
	c.OpenAIAPIKey = key
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

// getEnvIntDefault ignores negative or unparsable values.
func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("7s", "1500ms") or bare seconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}
