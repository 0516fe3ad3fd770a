package services

import (
	"bytes"
	"codejudge/internal/common"
	"codejudge/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ExecutionEngine is the transport contract of the external code runner.
// Payload fields cross it already base64-encoded.
type ExecutionEngine interface {
	SubmitBatch(ctx context.Context, requests []models.ExecutionRequest) ([]models.ExecutionToken, error)
	GetBatch(ctx context.Context, tokens []models.ExecutionToken) ([]models.ExecutionResult, error)
}

const resultFields = "token,stdout,stderr,compile_output,message,status,time,memory"

type Judge0Config struct {
	BaseURL     string
	AuthToken   string
	RapidAPIKey string
	RapidHost   string
	Timeout     time.Duration
}

type Judge0Client struct {
	baseURL     string
	authToken   string
	rapidAPIKey string
	rapidHost   string
	httpClient  *http.Client
}

func NewJudge0Client(cfg Judge0Config) *Judge0Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Judge0Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		authToken:   cfg.AuthToken,
		rapidAPIKey: cfg.RapidAPIKey,
		rapidHost:   cfg.RapidHost,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type batchSubmitBody struct {
	Submissions []models.ExecutionRequest `json:"submissions"`
}

type batchTokenResponse struct {
	Token string `json:"token"`
}

type batchResultResponse struct {
	Submissions []models.ExecutionResult `json:"submissions"`
}

func (c *Judge0Client) SubmitBatch(ctx context.Context, requests []models.ExecutionRequest) ([]models.ExecutionToken, error) {
	body, err := json.Marshal(batchSubmitBody{Submissions: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	endpoint := c.baseURL + "/submissions/batch?base64_encoded=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var tokens []batchTokenResponse
	if err := c.do(req, &tokens); err != nil {
		return nil, err
	}

	result := make([]models.ExecutionToken, len(tokens))
	for i, t := range tokens {
		if t.Token == "" {
			return nil, fmt.Errorf("engine returned no token for execution %d: %w", i, common.ErrEngineUnavailable)
		}
		result[i] = models.ExecutionToken(t.Token)
	}
	return result, nil
}

func (c *Judge0Client) GetBatch(ctx context.Context, tokens []models.ExecutionToken) ([]models.ExecutionResult, error) {
	joined := make([]string, len(tokens))
	for i, t := range tokens {
		joined[i] = string(t)
	}

	query := url.Values{}
	query.Set("tokens", strings.Join(joined, ","))
	query.Set("base64_encoded", "true")
	query.Set("fields", resultFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/submissions/batch?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	var resp batchResultResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Submissions, nil
}

func (c *Judge0Client) do(req *http.Request, dest interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}
	if c.rapidAPIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.rapidAPIKey)
		req.Header.Set("X-RapidAPI-Host", c.rapidHost)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine request %s %s failed: %v: %w", req.Method, req.URL.Path, err, common.ErrEngineUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("failed to read engine response: %v: %w", err, common.ErrEngineUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine returned status %d: %s: %w", resp.StatusCode, truncate(string(data), 256), common.ErrEngineUnavailable)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode engine response: %v: %w", err, common.ErrEngineUnavailable)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
