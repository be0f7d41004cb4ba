// Package mailgw sends outbound mail through a remote tool-calling server
// speaking JSON-RPC 2.0 over HTTP (an MCP-style endpoint exposing a mail
// tool). When no endpoint is configured the gateway reports itself
// unavailable rather than failing callers, and the purchase agent downgrades
// to a demo fallback.
package mailgw

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

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

const (
	defaultToolName      = "gmail_send_email"
	maxResponseSizeBytes = 1 << 20
)

type Config struct {
	URL      string        `envconfig:"URL" split_words:"true"`
	Token    string        `envconfig:"TOKEN" split_words:"true"`
	ToolName string        `envconfig:"TOOL_NAME" split_words:"true" default:"gmail_send_email"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	token      string
	toolName   string
	httpClient *http.Client
}

var _ contractx.MessagingGateway = (*Client)(nil)

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewClient builds a gateway client. An empty URL is not an error: it yields
// a client that reports unavailable, which keeps demo setups working.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL != "" {
		if _, err := url.ParseRequestURI(baseURL); err != nil {
			return nil, fmt.Errorf("invalid mail gateway url: %w", err)
		}
	}

	toolName := strings.TrimSpace(cfg.ToolName)
	if toolName == "" {
		toolName = defaultToolName
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    strings.TrimSpace(cfg.Token),
		toolName: toolName,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

func (c *Client) IsAvailable(ctx context.Context) bool {
	return c != nil && c.baseURL != ""
}

// Send posts a tools/call request for the configured mail tool. A deadline
// expiry is reported as FAILED("timeout"), never as an indefinite hang.
func (c *Client) Send(ctx context.Context, recipient, subject, body string) (contractx.SendResult, error) {
	if !c.IsAvailable(ctx) {
		return contractx.SendResult{
			Status: contractx.SendStatusDemoFallback,
			Detail: "mail gateway is not configured",
		}, nil
	}
	if strings.TrimSpace(recipient) == "" {
		return contractx.SendResult{}, fmt.Errorf("%w: recipient is empty", contractx.ErrValidation)
	}

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params: rpcParams{
			Name: c.toolName,
			Arguments: map[string]any{
				"to":      recipient,
				"subject": subject,
				"body":    body,
			},
		},
	})
	if err != nil {
		return contractx.SendResult{}, fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return contractx.SendResult{}, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return contractx.SendResult{}, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return contractx.SendResult{}, fmt.Errorf("%w: %v", contractx.ErrMessagingFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return contractx.SendResult{}, fmt.Errorf("read rpc response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return contractx.SendResult{}, fmt.Errorf("%w: http status=%d body=%s", contractx.ErrMessagingFailed, resp.StatusCode, string(raw))
	}

	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return contractx.SendResult{}, fmt.Errorf("decode rpc response: %w", err)
	}
	if parsed.Error != nil {
		return contractx.SendResult{}, fmt.Errorf("%w: rpc code=%d %s", contractx.ErrMessagingFailed, parsed.Error.Code, parsed.Error.Message)
	}

	return contractx.SendResult{
		Status: contractx.SendStatusSent,
		Detail: string(parsed.Result),
	}, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
