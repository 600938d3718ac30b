package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alexa-chat-bridge/internal/completion"
	"alexa-chat-bridge/internal/store"
	"alexa-chat-bridge/internal/types"
)

// DefaultSystemPrompt seeds every new transcript unless WithSystemPrompt overrides it.
const DefaultSystemPrompt = completion.DefaultSystemPrompt

// Completer produces the assistant's next utterance for a transcript.
type Completer interface {
	Complete(ctx context.Context, transcript []store.Turn) (string, error)
}

// Controller runs the per-session conversation for each classified intent.
type Controller struct {
	store        store.TranscriptStore
	completer    Completer
	log          *zap.Logger
	systemPrompt string
}

// Option configures a Controller.
type Option func(*Controller)

// WithSystemPrompt replaces the system turn; blank prompts are ignored.
func WithSystemPrompt(prompt string) Option {
	return func(c *Controller) {
		if p := strings.TrimSpace(prompt); p != "" {
			c.systemPrompt = p
		}
	}
}

// NewController rejects a nil store or completer; a nil logger discards output.
func NewController(s store.TranscriptStore, completer Completer, log *zap.Logger, opts ...Option) (*Controller, error) {
	if s == nil {
		return nil, errors.New("dialogue: transcript store must not be nil")
	}
	if completer == nil {
		return nil, errors.New("dialogue: completer must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		store:        s,
		completer:    completer,
		log:          log,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HandleEvent is the outermost boundary for one raw skill request. Whatever
// goes wrong, the caller gets a well-formed Reply.
func (c *Controller) HandleEvent(ctx context.Context, raw []byte) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic while handling event", zap.Any("panic", r), zap.Stack("stack"))
			reply = FaultReply()
		}
	}()

	env, err := types.DecodeRequest(raw)
	if err != nil {
		c.log.Error("failed to decode event", zap.Error(fmt.Errorf("dialogue: %w", err)))
		return FaultReply()
	}
	intent, sessionID := Classify(env)
	c.log.Info("event classified",
		zap.String("request_type", env.Request.Type),
		zap.String("request_id", env.Request.RequestID),
		zap.String("intent", string(intent.Kind)),
		zap.String("session_id", sessionID),
	)
	if intent.Kind == IntentSessionEnded && env.Request.Reason != "" {
		c.log.Info("session ended by platform", zap.String("session_id", sessionID), zap.String("reason", env.Request.Reason))
	}
	return c.Handle(ctx, intent, sessionID)
}

// Handle applies one intent to the session's transcript and returns the
// speech for it.
func (c *Controller) Handle(ctx context.Context, intent Intent, sessionID string) Reply {
	if intent.Chatty() {
		return c.chat(ctx, sessionID, intent.Text)
	}
	switch intent.Kind {
	case IntentLaunch:
		c.launch(sessionID)
		return NewReply(LaunchText, false, LaunchRepromptText)
	case IntentHelp:
		return NewReply(HelpText, false, "")
	case IntentStop, IntentSessionEnded:
		c.end(sessionID)
		return NewReply(GoodbyeText, true, "")
	default:
		return NewReply(UnknownText, false, "")
	}
}

func (c *Controller) systemTurn() store.Turn {
	return store.Turn{Role: store.RoleSystem, Content: c.systemPrompt}
}

func (c *Controller) launch(sessionID string) {
	unlock := c.store.Lock(sessionID)
	defer unlock()
	c.store.Reset(sessionID, []store.Turn{c.systemTurn()})
}

func (c *Controller) end(sessionID string) {
	unlock := c.store.Lock(sessionID)
	defer unlock()
	c.store.Delete(sessionID)
}

// chat holds the session lock across the completion call so concurrent
// requests on one session cannot interleave their turns.
func (c *Controller) chat(ctx context.Context, sessionID, text string) Reply {
	unlock := c.store.Lock(sessionID)
	defer unlock()

	if _, ok := c.store.Get(sessionID); !ok {
		c.store.Reset(sessionID, []store.Turn{c.systemTurn()})
	}
	c.store.Append(sessionID, store.Turn{Role: store.RoleUser, Content: text})
	transcript, _ := c.store.Get(sessionID)

	answer, err := c.completer.Complete(ctx, transcript)
	if err != nil {
		fields := []zap.Field{zap.String("session_id", sessionID), zap.Error(err)}
		var perr *completion.ProviderError
		if errors.As(err, &perr) {
			fields = append(fields, zap.String("kind", string(perr.Kind)))
		}
		c.log.Error("completion failed", fields...)
		return NewReply(ProviderErrorText, false, "")
	}

	c.store.Append(sessionID, store.Turn{Role: store.RoleAssistant, Content: answer})
	c.log.Debug("completion succeeded", zap.String("session_id", sessionID), zap.Int("turns", len(transcript)+1))
	return NewReply(answer, false, "")
}
