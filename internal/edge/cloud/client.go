// Package cloud реализует облачное хранилище как HTTP клиент сервера tillsync
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/pkg/api"
)

// ErrUnauthorized сервер отклонил токен узла
var ErrUnauthorized = errors.New("unauthorized")

// APIError ответ сервера с кодом, не входящим в таксономию хранилища
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// Client представляет HTTP клиент облачного хранилища одного арендатора
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient заменяет HTTP клиент (например, для тестов)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout задает таймаут одного запроса
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New создает клиент для сервера baseURL с токеном узла
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if auth := via[0].Header.Get("Authorization"); auth != "" {
					req.Header.Set("Authorization", auth)
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

func tablePath(table string, parts ...string) string {
	p := "/api/v1/tables/" + url.PathEscape(table)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// doRequest выполняет HTTP запрос.
// Сетевые ошибки, 429 и 5xx оборачивают storage.ErrTransient; коды ошибок
// сервера переводятся обратно в sentinel ошибки хранилища.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: request failed: %w", storage.ErrTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", storage.ErrTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, respBody)
	}

	if result != nil {
		dec := json.NewDecoder(bytes.NewReader(respBody))
		dec.UseNumber()
		if err := dec.Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func responseError(status int, body []byte) error {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Code == "" {
		errResp = api.ErrorResponse{Code: http.StatusText(status), Message: strings.TrimSpace(string(body))}
	}

	if sentinel := storage.ErrorForCode(errResp.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, errResp.Message)
	}

	apiErr := &APIError{Code: errResp.Code, Message: errResp.Message, StatusCode: status}
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	case status == http.StatusTooManyRequests, status >= 500:
		return fmt.Errorf("%w: %w", storage.ErrTransient, apiErr)
	default:
		return apiErr
	}
}
