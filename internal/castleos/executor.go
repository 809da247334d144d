package castleos

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RawResponse is one HTTP reply as raw bytes: the serialized status line and
// header block followed by the body. HeaderSize marks the split point.
type RawResponse struct {
	StatusCode int
	HeaderSize int
	Raw        []byte
}

// Header returns the header bytes.
func (r *RawResponse) Header() []byte {
	return r.Raw[:r.headerSize()]
}

// Body returns the body bytes.
func (r *RawResponse) Body() []byte {
	return r.Raw[r.headerSize():]
}

func (r *RawResponse) headerSize() int {
	switch {
	case r.HeaderSize < 0:
		return 0
	case r.HeaderSize > len(r.Raw):
		return len(r.Raw)
	}
	return r.HeaderSize
}

// Executor performs a single HTTP request.
type Executor interface {
	Execute(ctx context.Context, method, url string, header http.Header) (*RawResponse, error)
}

// ExecutorConfig configures the default HTTP executor.
type ExecutorConfig struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
}

// HTTPExecutor is the net/http backed Executor.
type HTTPExecutor struct {
	httpClient *http.Client
}

// NewHTTPExecutor creates an executor. The controller usually sits on the LAN
// behind a self-signed certificate, so callers normally set InsecureSkipVerify.
func NewHTTPExecutor(cfg ExecutorConfig) *HTTPExecutor {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
	if !cfg.FollowRedirects {
		httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &HTTPExecutor{httpClient: httpClient}
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, method, url string, header http.Header) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s\r\n", resp.Proto, resp.Status)
	if err := resp.Header.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize headers: %w", err)
	}
	buf.WriteString("\r\n")
	headerSize := buf.Len()

	if _, err := io.Copy(&buf, resp.Body); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		HeaderSize: headerSize,
		Raw:        buf.Bytes(),
	}, nil
}

// Close releases idle connections.
func (e *HTTPExecutor) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}
