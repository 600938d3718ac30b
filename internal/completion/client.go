package completion

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuthConfig enables client-credentials authentication for providers that
// sit behind a token-issuing gateway. It is off when TokenURL is empty.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func (o OAuthConfig) Enabled() bool {
	return strings.TrimSpace(o.TokenURL) != ""
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	OAuth   OAuthConfig
	// HTTPClient is the base client; defaults to one with a 30s timeout.
	HTTPClient *http.Client
}

// NewClient builds the OpenAI-compatible client the gateway talks to.
func NewClient(cfg ClientConfig) (*openai.Client, error) {
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = strings.TrimRight(base, "/")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	oc.HTTPClient = httpClient

	if cfg.OAuth.Enabled() {
		if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
			return nil, errors.New("completion: oauth client id and secret are required with a token url")
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		// Token requests reuse the base client and its timeout.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		authed := cc.Client(ctx)
		authed.Timeout = httpClient.Timeout
		oc.HTTPClient = authed
	}
	return openai.NewClientWithConfig(oc), nil
}
