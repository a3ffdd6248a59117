package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cognisys/arcana-cli/internal/arcana/config"
)

// Client talks to the CogniSys backend. Every request authenticates with a
// bearer token; the execute endpoint additionally carries the key in its
// body because the backend's execute schema requires the field.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	client  *http.Client
	debug   bool
}

// Result is the normalized outcome of a command submission. Transport and
// remote failures are folded into Status "error" so callers never have to
// distinguish failure shapes.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Output  string `json:"output,omitempty"`
	JobID   string `json:"job_id,omitempty"`
	Err     string `json:"error,omitempty"`
}

// JobStatus is one poll of an asynchronous job.
type JobStatus struct {
	Status      string `json:"status"`
	Progress    *int   `json:"progress,omitempty"`
	FinalResult string `json:"final_result,omitempty"`
	Err         string `json:"error,omitempty"`
}

// NewClient builds a gateway client from resolved settings.
func NewClient(settings config.Settings) *Client {
	return &Client{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		apiKey:  settings.APIKey,
		userID:  settings.UserID,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetDebug enables verbose echo of outgoing requests and responses.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// Execute submits a command for remote execution. The returned Result is
// always non-nil when err is nil; transport and remote failures come back
// as Status "error" rather than as a raw error. Only a missing API key or
// an unbuildable request produce a non-nil err.
func (c *Client) Execute(ctx context.Context, command string, args []string) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if args == nil {
		args = []string{}
	}
	payload := map[string]interface{}{
		"api_key": c.apiKey,
		"command": command,
		"args":    args,
		"user_id": c.userID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestSetupError{Err: err}
	}
	c.logPayload("POST /cli/execute", body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cli/execute", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestSetupError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return normalize(&NetworkError{Op: "execute", Err: err}), nil
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return normalize(&NetworkError{Op: "execute", Err: err}), nil
	}
	c.logResponse("POST /cli/execute", data)
	if resp.StatusCode >= 300 {
		return normalize(&RemoteError{StatusCode: resp.StatusCode, Message: errorDetail(data)}), nil
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return normalize(&RemoteError{StatusCode: resp.StatusCode, Message: "unparseable response"}), nil
	}
	if result.Status == "" {
		result.Status = "success"
	}
	return &result, nil
}

// JobStatus fetches the current state of an asynchronous job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	path := fmt.Sprintf("/arcana/jobs/%s/status", jobID)
	if err := c.getJSON(ctx, path, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ModelDetails fetches the backend's model description as raw JSON.
func (c *Client) ModelDetails(ctx context.Context) (json.RawMessage, error) {
	var details json.RawMessage
	if err := c.getJSON(ctx, "/cognisys/cli/model-details", &details); err != nil {
		return nil, err
	}
	return details, nil
}

// Version fetches the backend version document.
func (c *Client) Version(ctx context.Context) (json.RawMessage, error) {
	var version json.RawMessage
	if err := c.getJSON(ctx, "/version", &version); err != nil {
		return nil, err
	}
	return version, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &RequestSetupError{Err: err}
	}
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &NetworkError{Op: "GET " + path, Err: err}
	}
	c.logResponse("GET "+path, data)
	if resp.StatusCode >= 300 {
		return &RemoteError{StatusCode: resp.StatusCode, Message: errorDetail(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Message: "unparseable response"}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// normalize folds a gateway failure into the uniform Result shape.
func normalize(err error) *Result {
	return &Result{
		Status:  "error",
		Message: err.Error(),
		Err:     err.Error(),
	}
}

func errorDetail(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		for _, msg := range []string{payload.Message, payload.Error, payload.Detail} {
			if msg != "" {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) logPayload(label string, body []byte) {
	if !c.debug {
		return
	}
	fmt.Fprintf(os.Stderr, "arcana: -> %s %s\n", label, redactKey(body, c.apiKey))
}

func (c *Client) logResponse(label string, body []byte) {
	if !c.debug {
		return
	}
	fmt.Fprintf(os.Stderr, "arcana: <- %s %s\n", label, strings.TrimSpace(string(body)))
}

// redactKey keeps verbose output safe to paste into bug reports.
func redactKey(body []byte, key string) string {
	out := string(body)
	if key != "" {
		out = strings.ReplaceAll(out, key, "***")
	}
	return out
}
