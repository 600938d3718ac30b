package dialogue

import (
	"alexa-chat-bridge/internal/types"
)

type IntentKind string

const (
	IntentUnknown      IntentKind = "unknown"
	IntentLaunch       IntentKind = "launch"
	IntentChat         IntentKind = "chat"
	IntentFallback     IntentKind = "fallback"
	IntentHelp         IntentKind = "help"
	IntentStop         IntentKind = "stop"
	IntentSessionEnded IntentKind = "session_ended"
)

// Alexa intent names routed by the classifier.
const (
	ChatIntentName     = "ChatIntent"
	UserInputSlot      = "UserInput"
	FallbackIntentName = "AMAZON.FallbackIntent"
	HelpIntentName     = "AMAZON.HelpIntent"
	CancelIntentName   = "AMAZON.CancelIntent"
	StopIntentName     = "AMAZON.StopIntent"
)

const (
	// GreetingText stands in for the user's words when ChatIntent arrives without a UserInput value.
	GreetingText = "Hello, how can I help you?"
	// ClarificationText is what the assistant is asked whenever Alexa falls back.
	ClarificationText = "Could you please explain that in a different way?"
)

// Intent is the classified meaning of one inbound event. Text is the
// effective user utterance for IntentChat and IntentFallback and empty
// otherwise.
type Intent struct {
	Kind IntentKind
	Text string
}

// Chatty reports whether the intent goes through the completion path.
func (i Intent) Chatty() bool {
	return i.Kind == IntentChat || i.Kind == IntentFallback
}

// Classify maps a skill request to an Intent and the session id it belongs
// to. It never fails: missing fields fall through to defaults.
func Classify(env types.RequestEnvelope) (Intent, string) {
	sessionID := env.Session.SessionID
	if sessionID == "" {
		sessionID = types.DefaultSessionID
	}

	switch env.Request.Type {
	case types.RequestLaunch:
		return Intent{Kind: IntentLaunch}, sessionID
	case types.RequestIntent:
		return classifyIntent(env.Request.Intent), sessionID
	case types.RequestSessionEnded:
		return Intent{Kind: IntentSessionEnded}, sessionID
	default:
		return Intent{Kind: IntentUnknown}, sessionID
	}
}

func classifyIntent(in *types.Intent) Intent {
	if in == nil {
		return Intent{Kind: IntentUnknown}
	}
	switch in.Name {
	case ChatIntentName:
		if slot, ok := in.Slots[UserInputSlot]; ok && slot.Value != "" {
			return Intent{Kind: IntentChat, Text: slot.Value}
		}
		return Intent{Kind: IntentChat, Text: GreetingText}
	case FallbackIntentName:
		// Slot data is ignored on purpose; a fallback always asks for clarification.
		return Intent{Kind: IntentFallback, Text: ClarificationText}
	case HelpIntentName:
		return Intent{Kind: IntentHelp}
	case CancelIntentName, StopIntentName:
		return Intent{Kind: IntentStop}
	default:
		// Unlike the fallback intent, an unrecognized intent name gets no synthesized chat turn.
		return Intent{Kind: IntentUnknown}
	}
}
