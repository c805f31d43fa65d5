package fdic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/finquarry/callreport/internal/infra"
)

// ErrorKind classifies engine failures for callers that branch on
// outcome rather than parsing messages.
type ErrorKind string

const (
	ErrKindValidation ErrorKind = "validation" // malformed caller input, no network call made
	ErrKindTransport  ErrorKind = "transport"  // connection or timeout failure
	ErrKindProvider   ErrorKind = "provider"   // HTTP status or body-embedded provider error
	ErrKindParse      ErrorKind = "parse"      // non-JSON or schema-violating payload
)

// APIError is a classified engine failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int // 0 unless Kind is provider with an HTTP status
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// statusMessage maps an HTTP status code to a human-readable provider
// error message.
func statusMessage(code int) string {
	switch {
	case code == 400:
		return "bad request: the query parameters were rejected by the provider"
	case code == 401:
		return "authentication failed: check the configured API key"
	case code == 403:
		return "forbidden: the API key does not permit this query"
	case code == 404:
		return "not found: the requested resource does not exist"
	case code == 429:
		return "rate limited: too many requests, slow down and retry later"
	case code >= 500:
		return fmt.Sprintf("provider-side failure (HTTP %d): the data service is having trouble", code)
	default:
		return fmt.Sprintf("unexpected HTTP status %d from provider", code)
	}
}

// rawEnvelope is the parsed top-level provider payload. Records remain
// untyped maps until the normalizer validates them.
type rawEnvelope struct {
	Metadata map[string]any
	Records  []map[string]any
}

// bodySnippet truncates a raw payload for inclusion in parse errors.
func bodySnippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// fetch performs one GET against the financials endpoint — single
// attempt, no retry; backoff policy belongs to the caller wrapping the
// whole get-or-fetch operation. The returned error is always an
// *APIError classified per the engine taxonomy.
func (e *Engine) fetch(ctx context.Context, params map[string]string) (*rawEnvelope, *APIError) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	if e.apiKey != "" {
		q.Set(paramAPIKey, e.apiKey)
	}
	fullURL := e.baseURL + e.endpoint + "?" + q.Encode()

	body, status, err := infra.DoGet(ctx, e.client, fullURL, nil)
	if err != nil {
		var httpErr *infra.ErrHTTP
		if errors.As(err, &httpErr) {
			return nil, &APIError{
				Kind:       ErrKindProvider,
				StatusCode: httpErr.StatusCode,
				Message:    statusMessage(httpErr.StatusCode),
			}
		}
		return nil, &APIError{Kind: ErrKindTransport, Message: err.Error()}
	}
	defer body.Close()
	_ = status

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &APIError{Kind: ErrKindTransport, Message: fmt.Sprintf("read response body: %v", err)}
	}

	return parseEnvelope(raw)
}

// parseEnvelope decodes the provider JSON envelope. Accepted shapes:
//
//	{"metadata": {...}, "data": [ {...}, ... ]}
//	[ {...}, ... ]
//
// A top-level "error" key is treated identically to an HTTP-level
// failure — the provider sometimes returns embedded errors with a 200.
func parseEnvelope(raw []byte) (*rawEnvelope, *APIError) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err == nil {
		if msg, ok := top["error"]; ok {
			return nil, &APIError{Kind: ErrKindProvider, Message: embeddedErrorMessage(msg)}
		}

		env := &rawEnvelope{}
		if meta, ok := metadataKey(top); ok {
			if err := json.Unmarshal(meta, &env.Metadata); err != nil {
				return nil, parseError(raw, err)
			}
		}
		data, ok := top["data"]
		if !ok {
			return nil, &APIError{Kind: ErrKindParse,
				Message: fmt.Sprintf("response has no data key: %s", bodySnippet(raw))}
		}
		if err := json.Unmarshal(data, &env.Records); err != nil {
			return nil, parseError(raw, err)
		}
		return env, nil
	}

	// Alternate bare-array response.
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, parseError(raw, err)
	}
	return &rawEnvelope{Records: records}, nil
}

// metadataKey returns the provider metadata object; both "metadata" and
// the abbreviated "meta" appear in the wild.
func metadataKey(top map[string]json.RawMessage) (json.RawMessage, bool) {
	if m, ok := top["metadata"]; ok {
		return m, true
	}
	m, ok := top["meta"]
	return m, ok
}

// embeddedErrorMessage extracts a usable message from a body-embedded
// error value, which may be a plain string or an object.
func embeddedErrorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"message", "detail", "title"} {
			if v, ok := obj[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return fmt.Sprintf("provider returned embedded error: %s", bodySnippet(raw))
}

func parseError(raw []byte, err error) *APIError {
	return &APIError{
		Kind:    ErrKindParse,
		Message: fmt.Sprintf("malformed provider response (%v): %s", err, bodySnippet(raw)),
	}
}
