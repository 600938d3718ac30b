package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"alexa-chat-bridge/internal/store"
)

type fakeChat struct {
	resp  openai.ChatCompletionResponse
	err   error
	got   openai.ChatCompletionRequest
	calls int

	hasDeadline bool
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.got = req
	_, f.hasDeadline = ctx.Deadline()
	return f.resp, f.err
}

func answer(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
	}}
}

func transcript() []store.Turn {
	return []store.Turn{
		{Role: store.RoleSystem, Content: "You are a helpful AI assistant."},
		{Role: store.RoleUser, Content: "what is the weather?"},
	}
}

func newGateway(t *testing.T, api ChatAPI) *Gateway {
	t.Helper()
	g, err := NewGateway(api, Settings{})
	require.NoError(t, err)
	return g
}

func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, kind, perr.Kind)
}

func TestNewGateway_ValidatesAndDefaults(t *testing.T) {
	_, err := NewGateway(nil, Settings{})
	require.Error(t, err)

	g := newGateway(t, &fakeChat{})
	require.Equal(t, Settings{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   150,
		Timeout:     7 * time.Second,
	}, g.Settings())
}

func TestComplete_HappyPath(t *testing.T) {
	api := &fakeChat{resp: answer("  It's sunny.\n")}
	g := newGateway(t, api)

	out, err := g.Complete(context.Background(), transcript())
	require.NoError(t, err)
	require.Equal(t, "It's sunny.", out)
	require.Equal(t, 1, api.calls)
	require.True(t, api.hasDeadline)

	require.Equal(t, "gpt-4o-mini", api.got.Model)
	require.Equal(t, 150, api.got.MaxTokens)
	require.InDelta(t, 0.7, api.got.Temperature, 1e-6)
	require.Equal(t, []openai.ChatCompletionMessage{
		{Role: "system", Content: "You are a helpful AI assistant."},
		{Role: "user", Content: "what is the weather?"},
	}, api.got.Messages)
}

func TestComplete_TruncatesLongReplies(t *testing.T) {
	long := strings.Repeat("a", 301)
	g := newGateway(t, &fakeChat{resp: answer(long)})

	out, err := g.Complete(context.Background(), transcript())
	require.NoError(t, err)
	require.Len(t, out, 300)
	require.Equal(t, strings.Repeat("a", 297)+"...", out)
}

func TestComplete_KeepsExactly300(t *testing.T) {
	exact := strings.Repeat("b", 300)
	g := newGateway(t, &fakeChat{resp: answer(exact)})

	out, err := g.Complete(context.Background(), transcript())
	require.NoError(t, err)
	require.Equal(t, exact, out)
}

func TestTruncateReply_CountsRunes(t *testing.T) {
	in := strings.Repeat("ü", 400)
	out := truncateReply(in, MaxReplyChars)
	require.Equal(t, 300, utf8.RuneCountInString(out))
	require.True(t, strings.HasSuffix(out, "..."))
	require.True(t, utf8.ValidString(out))

	require.Equal(t, "short", truncateReply("short", MaxReplyChars))
}

func TestComplete_Failures(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeChat
		kind ErrorKind
	}{
		{name: "no choices", api: &fakeChat{resp: openai.ChatCompletionResponse{}}, kind: KindMalformed},
		{name: "blank content", api: &fakeChat{resp: answer("   ")}, kind: KindMalformed},
		{name: "rate limited", api: &fakeChat{err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}}, kind: KindRateLimit},
		{name: "rate limited raw", api: &fakeChat{err: &openai.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}}, kind: KindRateLimit},
		{name: "server error", api: &fakeChat{err: &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}}, kind: KindTransport},
		{name: "deadline", api: &fakeChat{err: fmt.Errorf("post: %w", context.DeadlineExceeded)}, kind: KindTimeout},
		{name: "network", api: &fakeChat{err: errors.New("connection refused")}, kind: KindTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGateway(t, tc.api)
			out, err := g.Complete(context.Background(), transcript())
			require.Empty(t, out)
			expectKind(t, err, tc.kind)
			require.Equal(t, 1, tc.api.calls, "the gateway must not retry")
		})
	}
}

func TestComplete_EmptyTranscript(t *testing.T) {
	api := &fakeChat{resp: answer("hi")}
	g := newGateway(t, api)

	_, err := g.Complete(context.Background(), nil)
	expectKind(t, err, KindInvalidRequest)
	require.Zero(t, api.calls)
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newProviderError(KindTransport, cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "transport")
	require.Contains(t, err.Error(), "boom")
}

// ---------------------------------------------------------------------------
// Against a real go-openai client
// ---------------------------------------------------------------------------

func newHTTPGateway(t *testing.T, srv *httptest.Server, timeout time.Duration) *Gateway {
	t.Helper()
	client, err := NewClient(ClientConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	g, err := NewGateway(client, Settings{Timeout: timeout})
	require.NoError(t, err)
	return g
}

const completionBody = `{
	"id": "chatcmpl-123",
	"object": "chat.completion",
	"created": 1670000000,
	"model": "gpt-4o-mini",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "It's sunny."},
		"finish_reason": "stop"
	}]
}`

func TestHTTPGateway_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"max_tokens":150`)
		require.Contains(t, string(body), `"temperature":0.7`)
		require.Contains(t, string(body), `"model":"gpt-4o-mini"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	out, err := newHTTPGateway(t, srv, time.Second).Complete(context.Background(), transcript())
	require.NoError(t, err)
	require.Equal(t, "It's sunny.", out)
}

func TestHTTPGateway_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	_, err := newHTTPGateway(t, srv, time.Second).Complete(context.Background(), transcript())
	expectKind(t, err, KindRateLimit)
}

func TestHTTPGateway_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	_, err := newHTTPGateway(t, srv, time.Second).Complete(context.Background(), transcript())
	expectKind(t, err, KindMalformed)
}

func TestHTTPGateway_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := newHTTPGateway(t, srv, 50*time.Millisecond).Complete(context.Background(), transcript())
	expectKind(t, err, KindTimeout)
	require.Less(t, time.Since(start), time.Second)
}

func TestHTTPGateway_OAuthClientCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gateway-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer gateway-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(ClientConfig{
		BaseURL: srv.URL + "/v1",
		OAuth: OAuthConfig{
			TokenURL:     srv.URL + "/oauth/token",
			ClientID:     "bridge",
			ClientSecret: "secret",
		},
	})
	require.NoError(t, err)
	g, err := NewGateway(client, Settings{Timeout: time.Second})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := g.Complete(context.Background(), transcript())
		require.NoError(t, err)
		require.Equal(t, "It's sunny.", out)
	}
	require.Equal(t, int32(1), tokenCalls.Load(), "token is cached between calls")
}

func TestNewClient_OAuthRequiresCredentials(t *testing.T) {
	_, err := NewClient(ClientConfig{OAuth: OAuthConfig{TokenURL: "https://auth.example.com/token"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "client id and secret")
}
