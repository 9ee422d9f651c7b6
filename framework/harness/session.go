package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/realworldapp/api-contract-tests/framework"
)

const defaultRequestTimeout = time.Second * 10

// Session issues requests to the backend, keeping any cookies that it sets.
type Session struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  framework.Logger
}

// Request describes one HTTP call. Path is relative to the backend base URL. Body, if not nil,
// is sent as JSON: a []byte or json.RawMessage is sent as-is, anything else is marshaled.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func newSession(baseURL string, timeout time.Duration, logger framework.Logger) *Session {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	jar, _ := cookiejar.New(nil) // only fails if given a bad PublicSuffixList
	return &Session{
		baseURL: baseURL,
		client:  &http.Client{Jar: jar},
		timeout: timeout,
		logger:  logger,
	}
}

// NewSession creates a standalone session, for callers that do not have a TestHarness.
func NewSession(baseURL string, timeout time.Duration, logger framework.Logger) *Session {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return newSession(baseURL, timeout, logger)
}

// Do sends the request and reads the whole response. Any HTTP status is a successful result;
// only transport failures are returned as errors.
func (s *Session) Do(ctx context.Context, r Request) (*Response, error) {
	u := s.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var body io.Reader
	var bodyData []byte
	if r.Body != nil {
		switch b := r.Body.(type) {
		case []byte:
			bodyData = b
		case json.RawMessage:
			bodyData = b
		default:
			data, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("marshal request body: %w", err)
			}
			bodyData = data
		}
		body = bytes.NewReader(bodyData)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		s.logger.Printf(">> %s %s %s", r.Method, u, string(bodyData))
	} else {
		s.logger.Printf(">> %s %s", r.Method, u)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Printf("<< error: %s", err)
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body from %s %s: %w", r.Method, u, err)
	}
	s.logger.Printf("<< %d %s", resp.StatusCode, string(data))

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (s *Session) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return s.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (s *Session) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return s.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (s *Session) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return s.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// DecodeJSON unmarshals the response body into target.
func (r *Response) DecodeJSON(target interface{}) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("malformed JSON response (status %d): %s", r.StatusCode, string(r.Body))
	}
	return nil
}
