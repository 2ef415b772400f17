package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FatalError marks an upstream failure that aborts the calling operation
// (create entry and continue). Everything else the client returns is
// retryable: callers log it and keep going.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("certified api %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err aborts the calling operation.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Client talks to the certified exam API. All shape validation happens here:
// callers only ever see typed results or an error.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateEntry registers a subject and returns the upstream skill id. Fatal on
// failure: without a skill id there is nothing to attach a session to.
func (c *Client) CreateEntry(ctx context.Context, subject string) (*Entry, error) {
	var entry Entry
	err := c.postJSON(ctx, "/api/v1/create-entry", "", map[string]any{"subject": subject}, &entry)
	if err != nil {
		return nil, &FatalError{Op: "create-entry", Err: err}
	}
	if entry.SkillID == 0 {
		return nil, &FatalError{Op: "create-entry", Err: errors.New("response missing skill_id")}
	}
	return &entry, nil
}

// Generate requests the question set for a skill. The response may be partial;
// missing tiers decode to empty slices so callers never see nil tiers.
func (c *Client) Generate(ctx context.Context, skillID int) (*GeneratedQuizPayload, error) {
	var resp struct {
		QuizStatus   string               `json:"quiz_status"`
		Questionaire GeneratedQuizPayload `json:"questionaire"`
	}
	err := c.postJSON(ctx, "/api/v1/generate", "", map[string]any{"skill_id": skillID}, &resp)
	if err != nil {
		return nil, fmt.Errorf("certified api generate: %w", err)
	}
	p := resp.Questionaire
	if p.Easy == nil {
		p.Easy = []QuizItem{}
	}
	if p.Medium == nil {
		p.Medium = []QuizItem{}
	}
	if p.Hard == nil {
		p.Hard = []QuizItem{}
	}
	return &p, nil
}

// Continue exchanges user identity for a submission token. Fatal on failure:
// nothing in the scoring flow works without the token.
func (c *Client) Continue(ctx context.Context, skillID int, email, phone, name string) (*ContinueResult, error) {
	var res ContinueResult
	err := c.postJSON(ctx, "/api/v1/continue", "", map[string]any{
		"skill_id": skillID,
		"email":    email,
		"phone":    phone,
		"name":     name,
	}, &res)
	if err != nil {
		return nil, &FatalError{Op: "continue", Err: err}
	}
	if res.Token == "" {
		return nil, &FatalError{Op: "continue", Err: errors.New("response missing token")}
	}
	return &res, nil
}

func (c *Client) SaveUserResponse(ctx context.Context, skillQuizID int, token string, attempts []Attempt, completionTime, score int) error {
	err := c.postJSON(ctx, "/api/v1/save-response", token, map[string]any{
		"skill_quiz_id":   skillQuizID,
		"attempt_array":   attempts,
		"completion_time": completionTime,
		"score":           score,
	}, nil)
	if err != nil {
		return fmt.Errorf("certified api save-response: %w", err)
	}
	return nil
}

func (c *Client) ClaimCertificate(ctx context.Context, skillID int, token string) error {
	err := c.postJSON(ctx, "/api/v1/claim-certificate", token, map[string]any{"skill_id": skillID}, nil)
	if err != nil {
		return fmt.Errorf("certified api claim-certificate: %w", err)
	}
	return nil
}

func (c *Client) CreateOrder(ctx context.Context, skillID int, token string) (*OrderResult, error) {
	var res OrderResult
	err := c.postJSON(ctx, "/api/v1/create-v2-test", token, map[string]any{"skill_id": skillID}, &res)
	if err != nil {
		return nil, fmt.Errorf("certified api create-v2-test: %w", err)
	}
	return &res, nil
}

// Analysis fetches the post-scoring analysis blob. The blob is opaque to this
// service; it is stored as-is on the session.
func (c *Client) Analysis(ctx context.Context, skillQuizID int, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/analysis?skill_quiz_id=%d", c.baseURL, skillQuizID), nil)
	if err != nil {
		return "", fmt.Errorf("certified api analysis: %w", err)
	}
	c.setHeaders(req, token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("certified api analysis: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("certified api analysis: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("certified api analysis: %w", err)
	}
	return string(body), nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req, token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
