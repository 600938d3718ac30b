package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type ErrorKind string

const (
	KindTimeout        ErrorKind = "timeout"
	KindRateLimit      ErrorKind = "rate_limit"
	KindMalformed      ErrorKind = "malformed_response"
	KindTransport      ErrorKind = "transport"
	KindInvalidRequest ErrorKind = "invalid_request"
)

// ProviderError is the single failure type returned by Gateway.Complete.
// Kind is for logs only; callers treat every kind alike.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("completion: %s", e.Kind)
	}
	return fmt.Sprintf("completion: %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newProviderError(kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Err: err}
}

// classify maps an error from the OpenAI client onto an ErrorKind.
func classify(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newProviderError(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newProviderError(KindTimeout, err)
	}

	if status, ok := statusCode(err); ok {
		if status == http.StatusTooManyRequests {
			return newProviderError(KindRateLimit, err)
		}
		return newProviderError(KindTransport, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return newProviderError(KindMalformed, err)
	}
	return newProviderError(KindTransport, err)
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}
