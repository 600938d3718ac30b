package types

// Request types sent by the Alexa Skills Kit.
const (
	RequestLaunch       = "LaunchRequest"
	RequestIntent       = "IntentRequest"
	RequestSessionEnded = "SessionEndedRequest"
)

const (
	EnvelopeVersion  = "1.0"
	SpeechPlainText  = "PlainText"
	DefaultSessionID = "default"
)

// RequestEnvelope is the subset of an Alexa skill request the bridge reads.
// Every field is optional; absent values decode to their zero value. Decode
// inbound requests with DecodeRequest, which tolerates mistyped fields.
type RequestEnvelope struct {
	Version string  `json:"version,omitempty"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

type Session struct {
	New         bool         `json:"new,omitempty"`
	SessionID   string       `json:"sessionId,omitempty"`
	Application *Application `json:"application,omitempty"`
	User        *User        `json:"user,omitempty"`
}

type Application struct {
	ApplicationID string `json:"applicationId,omitempty"`
}

type User struct {
	UserID string `json:"userId,omitempty"`
}

type Request struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
	Locale    string  `json:"locale,omitempty"`
	Intent    *Intent `json:"intent,omitempty"`
	// Reason is set on SessionEndedRequest (USER_INITIATED, ERROR, EXCEEDED_MAX_REPROMPTS).
	Reason string        `json:"reason,omitempty"`
	Error  *RequestError `json:"error,omitempty"`
}

type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

type Slot struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

type RequestError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResponseEnvelope is the reply body Alexa expects.
type ResponseEnvelope struct {
	Version  string   `json:"version"`
	Response Response `json:"response"`
}

type Response struct {
	OutputSpeech     OutputSpeech `json:"outputSpeech"`
	ShouldEndSession bool         `json:"shouldEndSession"`
	Reprompt         *Reprompt    `json:"reprompt,omitempty"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}
