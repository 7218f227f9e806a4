// Package client is a typed client for the budgetx HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"budgetx/internal/advisor"
	"budgetx/internal/core"
	"budgetx/internal/stats"
)

// FallbackAnswer is what Ask returns when advice failed before any text
// arrived.
const FallbackAnswer = "Sorry, I encountered an error while analyzing your scenario. Please try again."

// APIError is a non-2xx response. Message comes from the {"error": ...}
// body when the server sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("budgetx api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("budgetx api: %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a default that
// bounds the wait for response headers but not the body, so long advice
// streams are not cut off.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = 60 * time.Second
		httpClient = &http.Client{Transport: transport}
	}
	return &Client{baseURL: strings.TrimRight(u.String(), "/"), httpClient: httpClient}, nil
}

func (c *Client) Entries(ctx context.Context) ([]core.BudgetEntry, error) {
	var out []core.BudgetEntry
	return out, c.doJSON(ctx, http.MethodGet, "/api/entries", nil, &out)
}

func (c *Client) AddEntry(ctx context.Context, e core.BudgetEntry) (core.BudgetEntry, error) {
	var out core.BudgetEntry
	return out, c.doJSON(ctx, http.MethodPost, "/api/entries", e, &out)
}

func (c *Client) UpdateEntry(ctx context.Context, id string, e core.BudgetEntry) (core.BudgetEntry, error) {
	var out core.BudgetEntry
	return out, c.doJSON(ctx, http.MethodPut, "/api/entries/"+url.PathEscape(id), e, &out)
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/entries/"+url.PathEscape(id), nil, nil)
}

func (c *Client) History(ctx context.Context) ([]core.MonthlySnapshot, error) {
	var out []core.MonthlySnapshot
	return out, c.doJSON(ctx, http.MethodGet, "/api/history", nil, &out)
}

func (c *Client) AppendSnapshot(ctx context.Context, s core.MonthlySnapshot) (core.MonthlySnapshot, error) {
	var out core.MonthlySnapshot
	return out, c.doJSON(ctx, http.MethodPost, "/api/history", s, &out)
}

func (c *Client) Stats(ctx context.Context) (stats.Summary, error) {
	var out stats.Summary
	return out, c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &out)
}

// Summary returns the plain-text budget digest the advisor is given.
func (c *Client) Summary(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/summary", nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read summary: %w", err)
	}
	return string(body), nil
}

// ParseReceipt uploads image bytes for extraction. Nothing is stored.
func (c *Client) ParseReceipt(ctx context.Context, image []byte, mimeType string) (core.ParsedReceipt, error) {
	req := struct {
		Image    string `json:"image"`
		MIMEType string `json:"mimeType,omitempty"`
	}{base64.StdEncoding.EncodeToString(image), mimeType}

	var out core.ParsedReceipt
	return out, c.doJSON(ctx, http.MethodPost, "/api/receipt", req, &out)
}

func (c *Client) AddReceiptEntry(ctx context.Context, p core.ParsedReceipt) (core.BudgetEntry, error) {
	var out core.BudgetEntry
	return out, c.doJSON(ctx, http.MethodPost, "/api/entries/receipt", p, &out)
}

// Clear resets the server to its seed data.
func (c *Client) Clear(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/state", nil, nil)
}

// StreamAdvice asks a what-if question and returns the answer fragments as
// they arrive. An empty budgetContext lets the server use its own data.
// The iterator must be ranged over to release the connection; a truncated
// stream ends with a *advisor.StreamInterruptedError.
func (c *Client) StreamAdvice(ctx context.Context, question, budgetContext string) (iter.Seq2[string, error], error) {
	body := struct {
		Question      string `json:"question"`
		BudgetContext string `json:"budgetContext,omitempty"`
	}{question, budgetContext}

	resp, err := c.send(ctx, http.MethodPost, "/api/simulator", body, advisor.ContentTypeEvents)
	if err != nil {
		return nil, err
	}

	mode := advisor.ModeForContentType(resp.Header.Get("Content-Type"))
	return func(yield func(string, error) bool) {
		defer resp.Body.Close()
		for frag, err := range advisor.Decode(resp.Body, mode) {
			if !yield(frag, err) || err != nil {
				return
			}
		}
	}, nil
}

// Ask collects the whole answer. On failure it returns the text received
// so far, or FallbackAnswer when there was none, together with the error.
func (c *Client) Ask(ctx context.Context, question, budgetContext string) (string, error) {
	frags, err := c.StreamAdvice(ctx, question, budgetContext)
	if err != nil {
		return FallbackAnswer, err
	}
	text, err := advisor.Accumulate(frags)
	if err != nil && text == "" {
		return FallbackAnswer, err
	}
	return text, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx responses into *APIError.
// The caller owns the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, in any, accept string) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, decodeAPIError(resp)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
