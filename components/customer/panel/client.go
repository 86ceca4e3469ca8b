package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MethodPath is the backend method endpoint serving dashboard fragments.
const MethodPath = "/api/method/customer_dashboard.get_customer_dashboard"

// RPCConfig configures the RPC client.
type RPCConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// RPCClient fetches dashboard fragments from the backend method endpoint.
type RPCClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Fetcher = (*RPCClient)(nil)

// NewRPCClient builds a client for the backend at cfg.BaseURL.
func NewRPCClient(cfg RPCConfig) (*RPCClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("panel: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RPCClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

type methodRequest struct {
	Customer string `json:"customer"`
}

type methodResponse struct {
	Message *string `json:"message"`
	Exc     string  `json:"exc,omitempty"`
}

// GetCustomerDashboard implements Fetcher. A null or missing message is an empty result.
func (c *RPCClient) GetCustomerDashboard(ctx context.Context, customer string) (string, error) {
	body, err := json.Marshal(methodRequest{Customer: customer})
	if err != nil {
		return "", fmt.Errorf("panel: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+MethodPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("panel: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "token "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("panel: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return "", fmt.Errorf("panel: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	var out methodResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("panel: decode response: %w", err)
	}
	if out.Exc != "" {
		return "", fmt.Errorf("panel: remote exception: %s", out.Exc)
	}
	if out.Message == nil {
		return "", nil
	}
	return *out.Message, nil
}
