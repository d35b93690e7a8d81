// Package vapi is a minimal REST client for the Vapi voice assistant API.
package vapi

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
)

// DefaultBaseURL is the public Vapi API endpoint.
const DefaultBaseURL = "https://api.vapi.ai"

// StatusEnded is the call status reported once a call is over.
const StatusEnded = "ended"

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d - %s", e.StatusCode, e.Body)
}

// AssistantOverrides customizes an assistant for a single call.
type AssistantOverrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

// CreateWebCallRequest is the body of POST /call/web.
type CreateWebCallRequest struct {
	AssistantID        string              `json:"assistantId"`
	AssistantOverrides *AssistantOverrides `json:"assistantOverrides,omitempty"`
}

// Call is the subset of the Vapi call object this client reads.
type Call struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	EndedReason string `json:"endedReason,omitempty"`
	WebCallURL  string `json:"webCallUrl,omitempty"`
}

// Client talks to the Vapi REST API with a bearer token.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL and a
// nil httpClient gets one with the given timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// CreateWebCall starts a browser-joinable call for the given assistant.
func (c *Client) CreateWebCall(ctx context.Context, req CreateWebCallRequest) (*Call, error) {
	var call Call
	if err := c.do(ctx, http.MethodPost, "/call/web", req, &call); err != nil {
		return nil, err
	}

	if call.ID == "" {
		return nil, errors.New("response missing call id")
	}
	if call.WebCallURL == "" {
		return nil, errors.New("response missing webCallUrl")
	}

	return &call, nil
}

// GetCall fetches the current state of a call.
func (c *Client) GetCall(ctx context.Context, id string) (*Call, error) {
	var call Call
	if err := c.do(ctx, http.MethodGet, "/call/"+url.PathEscape(id), nil, &call); err != nil {
		return nil, err
	}

	return &call, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
