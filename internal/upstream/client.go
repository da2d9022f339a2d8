// Package upstream wraps the two backend services the gateway aggregates:
// the core data service and the ML inference service. It owns transport
// concerns only; failures are classified here into StatusError (the remote
// answered with an error) and ConnError (the remote never answered) so the
// translation boundary can map them without inspecting transport internals.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"syscall"
	"time"
)

// StatusError is a non-2xx answer from an upstream service. ErrType and
// Message are filled from the structured `{"error":{"type","message"}}`
// body the core service emits, or from a bare `{"message"}` body; both are
// empty when the body is not structured.
type StatusError struct {
	StatusCode int
	ErrType    string
	Message    string
}

func (e *StatusError) Error() string {
	if e.ErrType != "" {
		return fmt.Sprintf("upstream returned status %d: %s: %s", e.StatusCode, e.ErrType, e.Message)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

// ConnKind classifies connection-level failures where no response exists.
type ConnKind int

const (
	// KindRefused covers connection refused and unknown-host failures.
	KindRefused ConnKind = iota
	// KindTimeout covers deadline and timeout failures.
	KindTimeout
	// KindOther covers every remaining network-level failure.
	KindOther
)

// ConnError is a network failure with no upstream response.
type ConnError struct {
	Kind ConnKind
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("upstream connection failed: %v", e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// Client issues requests against the configured core and ML base URLs.
type Client struct {
	coreURL string
	mlURL   string

	httpc  *http.Client
	logger *slog.Logger
}

// New creates an upstream client. The timeout applies per request and is
// the only timeout policy in the gateway; zero disables it.
func New(coreURL, mlURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		coreURL: coreURL,
		mlURL:   mlURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GetCore issues a GET against the core service and decodes the JSON
// response into dest.
func (c *Client) GetCore(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.coreURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, dest)
}

// PostML submits an image to the ML service as a multipart payload under
// the fixed part name "image" and decodes the JSON response into dest.
func (c *Client) PostML(ctx context.Context, path string, image []byte, dest any) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="image.jpg"`)
	header.Set("Content-Type", "image/jpeg")

	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.mlURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		parseErrorBody(resp.Body, se)
		c.logger.DebugContext(req.Context(), "upstream error response",
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"errorType", se.ErrType)
		return se
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding upstream response: %w", err)
	}

	return nil
}

// errorBody covers both upstream error shapes: the core service's
// `{"error":{"type","message"}}` envelope and a bare `{"message"}`.
type errorBody struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func parseErrorBody(r io.Reader, se *StatusError) {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return
	}

	if body.Error != nil {
		se.ErrType = body.Error.Type
		se.Message = body.Error.Message
		return
	}
	se.Message = body.Message
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ConnError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnError{Kind: KindTimeout, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.As(err, &dnsErr) {
		return &ConnError{Kind: KindRefused, Err: err}
	}

	return &ConnError{Kind: KindOther, Err: err}
}
