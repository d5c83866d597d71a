package quota

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	managementUserAgent = "cliproxy-quota/1.0"
	maxResponseBytes    = 1_000_000
)

// AuthFile is one managed credential as reported by the management API,
// flattened from the wire shape.
type AuthFile struct {
	Name          string
	Provider      string
	AuthIndex     string
	Email         string
	Status        string
	StatusMessage string
	Disabled      bool
	Unavailable   bool
	Label         string
	AccountType   string

	// Codex only, lifted from id_token.
	ChatGPTAccountID string
	PlanType         string

	// Antigravity only.
	ProjectID string
}

// DisplayID is the identity shown in menus: email when known, file name
// otherwise.
func (f AuthFile) DisplayID() string {
	if v := strings.TrimSpace(f.Email); v != "" {
		return v
	}
	if v := strings.TrimSpace(f.Name); v != "" {
		return v
	}
	return "unknown"
}

// APICallRequest is the /v0/management/api-call payload proxying one upstream
// request through a managed credential.
type APICallRequest struct {
	AuthIndex string            `json:"authIndex"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Header    map[string]string `json:"header,omitempty"`
	Data      string            `json:"data,omitempty"`
}

// APICallResult is the proxy envelope around the upstream response.
type APICallResult struct {
	StatusCode int
	Body       json.RawMessage
}

// DecodeBody unmarshals the upstream body, unwrapping string-encoded JSON.
func (r APICallResult) DecodeBody(out any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("empty response body")
	}
	return decodeProxyBody(r.Body, out)
}

// Client talks to one CLIProxyAPI management endpoint. Each method performs
// exactly one HTTP request; retries and fallbacks belong to callers.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, managementKey string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		key:        strings.TrimSpace(managementKey),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) managementURL(path string) string {
	return c.baseURL + "/v0/management/" + path
}

// ListAuthFiles fetches the managed credential list. All auth files are
// returned; provider filtering happens during normalization.
func (c *Client) ListAuthFiles(ctx context.Context) ([]AuthFile, error) {
	body, err := c.do(ctx, http.MethodGet, c.managementURL("auth-files"), nil)
	if err != nil {
		return nil, err
	}

	var payload authFilesResponseRaw
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode auth-files response: %w", err)
	}

	out := make([]AuthFile, 0, len(payload.Files))
	for _, raw := range payload.Files {
		out = append(out, toAuthFile(raw))
	}
	c.log.Debug("listed auth files", zap.Int("count", len(out)))
	return out, nil
}

// APICall proxies one upstream request through the managed credential.
func (c *Client) APICall(ctx context.Context, req APICallRequest) (APICallResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return APICallResult{}, fmt.Errorf("encode api-call payload: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.managementURL("api-call"), payload)
	if err != nil {
		return APICallResult{}, err
	}

	var raw apiCallResultRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return APICallResult{}, fmt.Errorf("decode api-call response: %w", err)
	}
	c.log.Debug("proxied api call",
		zap.String("url", req.URL),
		zap.Int("upstream_status", raw.StatusCode),
	)
	return APICallResult{StatusCode: raw.StatusCode, Body: raw.Body}, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build management request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", managementUserAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("management request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read management response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("management endpoint returned HTTP %d: %s", res.StatusCode, summarizeBody(data))
	}
	return data, nil
}

func toAuthFile(raw authFileRaw) AuthFile {
	out := AuthFile{
		Name:          strings.TrimSpace(raw.Name),
		Provider:      strings.TrimSpace(raw.Provider),
		AuthIndex:     string(raw.AuthIndex),
		Email:         strings.TrimSpace(raw.Email),
		Status:        raw.Status,
		StatusMessage: raw.StatusMessage,
		Disabled:      raw.Disabled,
		Unavailable:   raw.Unavailable,
		Label:         raw.Label,
		AccountType:   raw.AccountType,
		ProjectID:     strings.TrimSpace(raw.ProjectID),
	}
	if out.AuthIndex == "" {
		out.AuthIndex = string(raw.AuthIndexAlt)
	}
	if raw.IDToken != nil {
		out.ChatGPTAccountID = strings.TrimSpace(raw.IDToken.ChatGPTAccountID)
		out.PlanType = strings.TrimSpace(raw.IDToken.PlanType)
	}
	if out.Status == "" {
		out.Status = "unknown"
	}
	return out
}

func summarizeBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
