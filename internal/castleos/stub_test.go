package castleos

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

const stubHeader = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"

// stubResponse is a canned reply for one endpoint.
type stubResponse struct {
	status int
	body   string
	err    error
}

// recordedRequest is one request seen by the stub.
type recordedRequest struct {
	method   string
	url      *url.URL
	endpoint string
	header   http.Header
}

// stubExecutor answers by endpoint name and records every request.
type stubExecutor struct {
	responses map[string]stubResponse
	requests  []recordedRequest
}

func newStub(responses map[string]stubResponse) *stubExecutor {
	return &stubExecutor{responses: responses}
}

func (s *stubExecutor) Execute(_ context.Context, method, rawURL string, header http.Header) (*RawResponse, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimPrefix(u.Path, basePath)
	s.requests = append(s.requests, recordedRequest{
		method:   method,
		url:      u,
		endpoint: endpoint,
		header:   header.Clone(),
	})

	resp, ok := s.responses[endpoint]
	if !ok {
		return &RawResponse{StatusCode: http.StatusOK, HeaderSize: len(stubHeader), Raw: []byte(stubHeader)}, nil
	}
	if resp.err != nil {
		return nil, resp.err
	}
	status := resp.status
	if status == 0 {
		status = http.StatusOK
	}
	return &RawResponse{
		StatusCode: status,
		HeaderSize: len(stubHeader),
		Raw:        []byte(stubHeader + resp.body),
	}, nil
}

func (s *stubExecutor) last(t *testing.T) recordedRequest {
	t.Helper()
	if len(s.requests) == 0 {
		t.Fatal("no requests recorded")
	}
	return s.requests[len(s.requests)-1]
}

func (s *stubExecutor) count(endpoint string) int {
	n := 0
	for _, r := range s.requests {
		if r.endpoint == endpoint {
			n++
		}
	}
	return n
}

func newTestClient(responses map[string]stubResponse) (*Client, *stubExecutor) {
	stub := newStub(responses)
	c := NewClient(Settings{Host: "castle.lan", Username: "admin", Token: "tok"}, WithExecutor(stub))
	return c, stub
}

var errStubDown = errors.New("connection refused")
