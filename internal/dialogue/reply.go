package dialogue

import (
	"strings"

	"alexa-chat-bridge/internal/types"
)

// Canned speech.
const (
	LaunchText         = "Hello! I'm your AI assistant. Ask me anything."
	LaunchRepromptText = "For example, say: what is Python?"
	HelpText           = "You can ask me anything, for example: what is the weather today?"
	GoodbyeText        = "Goodbye!"
	ProviderErrorText  = "Sorry, I'm having trouble processing your request right now."
	UnknownText        = "Sorry, I didn't understand. Please try again."
	FaultText          = "Sorry, I encountered an error. Please try again."
	PlaceholderText    = "Sorry, I don't have an answer for that."
)

// Reply is the speech produced for one request. Build it with NewReply.
type Reply struct {
	Speech     string
	EndSession bool
	Reprompt   string
}

// NewReply never yields empty speech; blank text becomes PlaceholderText.
func NewReply(text string, endSession bool, reprompt string) Reply {
	if strings.TrimSpace(text) == "" {
		text = PlaceholderText
	}
	return Reply{
		Speech:     text,
		EndSession: endSession,
		Reprompt:   strings.TrimSpace(reprompt),
	}
}

// FaultReply is returned whenever a request fails outside the known error paths.
func FaultReply() Reply {
	return NewReply(FaultText, false, "")
}

// Envelope renders the reply in the Alexa response format.
func (r Reply) Envelope() types.ResponseEnvelope {
	resp := types.ResponseEnvelope{
		Version: types.EnvelopeVersion,
		Response: types.Response{
			OutputSpeech:     types.OutputSpeech{Type: types.SpeechPlainText, Text: r.Speech},
			ShouldEndSession: r.EndSession,
		},
	}
	if r.Reprompt != "" {
		resp.Response.Reprompt = &types.Reprompt{
			OutputSpeech: types.OutputSpeech{Type: types.SpeechPlainText, Text: r.Reprompt},
		}
	}
	return resp
}
