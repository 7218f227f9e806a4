// Package gemini adapts the Google Gen AI SDK to the llm.Model port.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"budgetx/internal/llm"
	applog "budgetx/internal/log"
)

var ErrEmptyResponse = errors.New("model returned no content")

// Client calls one Gemini model.
type Client struct {
	models *genai.Models
	model  string
	logger *applog.Logger
}

type Options struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *applog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if opts.Model == "" {
		return nil, errors.New("gemini: model is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentModel)
	}
	logger.Info("Initialized Gemini client", applog.FieldModel, opts.Model)
	return &Client{models: client.Models, model: opts.Model, logger: logger}, nil
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) GenerateObject(ctx context.Context, req llm.ObjectRequest) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toSchema(req.Schema),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{toContent(req.Parts)}, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.logger.WarnContext(ctx, "Model returned an empty reply", applog.FieldModel, c.model)
		return nil, ErrEmptyResponse
	}
	return []byte(text), nil
}

func (c *Client) StreamText(ctx context.Context, req llm.TextRequest) iter.Seq2[string, error] {
	var config *genai.GenerateContentConfig
	if req.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	return func(yield func(string, error) bool) {
		for resp, err := range c.models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				yield("", fmt.Errorf("stream content: %w", err))
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

func toContent(parts []llm.Part) *genai.Content {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return genai.NewContentFromParts(out, genai.RoleUser)
}

func toSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             schemaType(s.Type),
		Description:      s.Description,
		Required:         s.Required,
		Enum:             s.Enum,
		PropertyOrdering: s.Ordering,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case llm.TypeObject:
		return genai.TypeObject
	case llm.TypeNumber:
		return genai.TypeNumber
	default:
		return genai.TypeString
	}
}
