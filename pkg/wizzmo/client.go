package wizzmo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Client is the typed data-access layer over the Wizzmo REST API. Every
// method returns (data, error) with errors of type *APIError.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu          sync.RWMutex
	accessToken string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// New builds a client for baseURL, e.g. "http://localhost:3000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: "build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) upload(ctx context.Context, path, field, filename string, data []byte, fields map[string]string, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return &APIError{Kind: KindValidation, Message: "encode form", Err: err}
		}
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: "encode form", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return &APIError{Kind: KindValidation, Message: "encode form", Err: err}
	}
	if err := w.Close(); err != nil {
		return &APIError{Kind: KindValidation, Message: "encode form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return &APIError{Kind: KindNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Kind: KindNetwork, Message: "read response", Err: err}
	}
	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Kind: kindFromStatus(resp.StatusCode), Message: msg}
	}
	if decodeErr != nil {
		return &APIError{Status: resp.StatusCode, Kind: KindInternal, Message: "malformed response", Err: decodeErr}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Kind: KindInternal, Message: "malformed data", Err: fmt.Errorf("decode %s: %w", req.URL.Path, err)}
	}
	return nil
}

// wsURL turns the REST base URL into the realtime endpoint.
func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/realtime")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported scheme " + u.Scheme)
	}
	return u.String(), nil
}
