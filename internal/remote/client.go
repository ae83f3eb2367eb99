// Package remote implements the HTTP client for the guide service, the
// external collaborator that actually runs guide-generation jobs.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"
)

// Sentinel errors for guide service client failures.
var (
	ErrRemoteUnreachable = errors.New("guide service unreachable")
	ErrRemoteTimeout     = errors.New("guide service timeout")
	ErrRemoteAPI         = errors.New("guide service error")
)

// Client is the interface for the guide service operations the tracker
// consumes. CreateGuide is called exactly once per submission; GuideStatus and
// GuideResults are idempotent and safe to retry.
type Client interface {
	CreateGuide(ctx context.Context, req CreateRequest) (*CreateResponse, error)
	GuideStatus(ctx context.Context, remoteID string) (*StatusResponse, error)
	GuideResults(ctx context.Context, remoteID string) (json.RawMessage, error)
	Ready(ctx context.Context) error
}

// CreateRequest carries one submission to the guide service.
type CreateRequest struct {
	WebsiteURL     string
	RoleTitle      string
	CompanyName    string // optional
	CompanyContext string // optional
	Filename       string
	PDF            []byte
}

// CreateResponse is the guide service's reply to a successful creation.
type CreateResponse struct {
	GuideID    string    `json:"guide_id"`
	Status     string    `json:"status"`
	StatusURL  string    `json:"status_url"`
	ResultsURL string    `json:"results_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusResponse is one status observation. The status vocabulary is open;
// the tracker only special-cases the two terminal sentinels.
type StatusResponse struct {
	GuideID   string    `json:"guide_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HTTPClient implements Client against the guide service's HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new guide service client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *HTTPClient) CreateGuide(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"website_url": req.WebsiteURL,
		"role_title":  req.RoleTitle,
	}
	if req.CompanyName != "" {
		fields["company_name"] = req.CompanyName
	}
	if req.CompanyContext != "" {
		fields["company_context"] = req.CompanyContext
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("writing form field %s: %w", name, err)
		}
	}

	fw, err := mw.CreateFormFile("pdf", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := fw.Write(req.PDF); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	u := c.baseURL + "/api/guides"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var created CreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decoding creation response: %w", err)
	}
	return &created, nil
}

func (c *HTTPClient) GuideStatus(ctx context.Context, remoteID string) (*StatusResponse, error) {
	u := fmt.Sprintf("%s/api/guides/%s/status", c.baseURL, remoteID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setAuth(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding status response: %w", err)
	}
	return &status, nil
}

func (c *HTTPClient) GuideResults(ctx context.Context, remoteID string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/api/guides/%s/results", c.baseURL, remoteID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setAuth(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading results payload: %w", err)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: results payload is not valid JSON", ErrRemoteAPI)
	}
	return json.RawMessage(payload), nil
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	u := c.baseURL + "/health"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setAuth(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: guide service not ready (status %d)", ErrRemoteUnreachable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// apiError turns a non-success HTTP response into an ErrRemoteAPI, preserving
// the server's error detail when the body carries one.
func apiError(resp *http.Response) error {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		detail := body.Detail
		if detail == "" {
			detail = body.Error
		}
		if detail != "" {
			return fmt.Errorf("%w: status %d: %s", ErrRemoteAPI, resp.StatusCode, detail)
		}
	}
	return fmt.Errorf("%w: status %d", ErrRemoteAPI, resp.StatusCode)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrRemoteTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrRemoteTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
