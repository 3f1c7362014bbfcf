package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/google/uuid"
)

// Request is one call to the remote authority. Body and Out may be nil.
type Request struct {
	Method string
	Path   string
	Body   any
	Out    any
	Token  string
}

// Transport sends a request to the remote base URL.
type Transport interface {
	Do(ctx context.Context, req Request) error
}

// TransportKind selects the Transport implementation at start-up.
type TransportKind string

const TransportHTTP TransportKind = "http"

// NewTransport is the only place that chooses an implementation.
func NewTransport(kind TransportKind, baseURL string, timeout time.Duration) (Transport, error) {
	switch kind {
	case TransportHTTP, "":
		return NewHTTPTransport(baseURL, &http.Client{Timeout: timeout}), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}

type HTTPTransport struct {
	baseURL string
	hc      *http.Client
}

func NewHTTPTransport(baseURL string, hc *http.Client) *HTTPTransport {
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (t *HTTPTransport) Do(ctx context.Context, r Request) error {
	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.Method, r.Path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, t.baseURL+r.Path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.Method, r.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if r.Token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+r.Token)
	}

	resp, err := t.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, r.Method, r.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", ErrUnavailable, r.Method, r.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Detail: parseDetail(data)}
	}

	if r.Out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, r.Out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrMalformedResponse, r.Method, r.Path, err)
	}
	return nil
}

// parseDetail pulls the human message out of {"detail": ...}. Validation
// errors carry a list there; the first entry's "msg" is used.
func parseDetail(data []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(env.Detail, &s) == nil {
		return s
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(env.Detail, &list) == nil && len(list) > 0 {
		return list[0].Msg
	}
	return string(env.Detail)
}
