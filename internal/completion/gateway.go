package completion

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"alexa-chat-bridge/internal/store"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = float32(0.7)
	DefaultMaxTokens   = 150
	DefaultTimeout     = 7 * time.Second

	// MaxReplyChars bounds the speech length; longer replies are cut to
	// MaxReplyChars-len(ellipsis) characters followed by the ellipsis.
	MaxReplyChars = 300
	ellipsis      = "..."
)

// ChatAPI is the part of *openai.Client the gateway uses.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Settings struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Gateway sends a transcript to the completion provider and returns one
// bounded assistant utterance. It never retries.
type Gateway struct {
	api      ChatAPI
	settings Settings
}

func NewGateway(api ChatAPI, s Settings) (*Gateway, error) {
	if api == nil {
		return nil, errors.New("completion: chat api must not be nil")
	}
	if strings.TrimSpace(s.Model) == "" {
		s.Model = DefaultModel
	}
	if s.Temperature <= 0 {
		s.Temperature = DefaultTemperature
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	return &Gateway{api: api, settings: s}, nil
}

func (g *Gateway) Settings() Settings { return g.settings }

func (g *Gateway) Complete(ctx context.Context, transcript []store.Turn) (string, error) {
	if len(transcript) == 0 {
		return "", newProviderError(KindInvalidRequest, errors.New("empty transcript"))
	}

	ctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.settings.Model,
		Messages:    convertTurns(transcript),
		MaxTokens:   g.settings.MaxTokens,
		Temperature: g.settings.Temperature,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", newProviderError(KindMalformed, errors.New("no choices in response"))
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", newProviderError(KindMalformed, errors.New("empty completion"))
	}
	return truncateReply(reply, MaxReplyChars), nil
}

func convertTurns(turns []store.Turn) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		role := string(t.Role)
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return out
}

// truncateReply counts characters, not bytes, so multi-byte speech is never
// split inside a rune.
func truncateReply(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - utf8.RuneCountInString(ellipsis)
	runes := []rune(s)
	return string(runes[:keep]) + ellipsis
}
