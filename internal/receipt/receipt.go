// Package receipt turns a receipt photo into a structured expense using a
// vision model. The model's answer is checked strictly before it is
// returned; nothing partially valid gets through.
package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"budgetx/internal/core"
	"budgetx/internal/llm"
	applog "budgetx/internal/log"
)

// MaxImageBytes is the largest decoded image accepted.
const MaxImageBytes = 10 << 20

const defaultMIMEType = "image/jpeg"

const (
	msgImageRequired = "Image data is required"
	msgImageTooLarge = "Image must be smaller than 10MB"
)

const systemPrompt = `You are a receipt parsing assistant. Analyze the receipt image and extract the following information:
1. The total amount (final total, not subtotals)
2. The merchant/store name or a short description of what was purchased
3. A category for this expense (choose the most appropriate: Housing, Education, Food, Utilities, Transport, Fun, Health, Shopping, or Other)
4. Whether this is a one-time or recurring expense (subscriptions, memberships, utility bills, rent, insurance are recurring; regular purchases like groceries, restaurants, shopping are one-time)
5. If recurring, the frequency (weekly, monthly, or yearly)
6. Any useful notes like the date, specific items, or receipt number

Be precise with the amount - use the final total including tax if visible.
For the label, use the store/merchant name if visible, otherwise describe the purchase briefly.
For recurrence, consider the type of purchase - streaming services, gym memberships, phone bills, rent are recurring; food, clothing, electronics purchases are typically one-time.`

const userInstruction = "Please analyze this receipt and extract the expense information."

// payload is the exact shape the model must return. Its tags mirror Schema:
// presence and enums only. Value rules such as a positive amount belong to
// the entry and are checked when the receipt is saved.
type payload struct {
	Amount     *float64 `json:"amount" validate:"required"`
	Label      *string  `json:"label" validate:"required"`
	Category   *string  `json:"category" validate:"required"`
	Recurrence string   `json:"recurrence" validate:"required,oneof=one-time recurring"`
	Frequency  string   `json:"frequency" validate:"omitempty,oneof=weekly monthly yearly"`
	Notes      string   `json:"notes"`
}

// Gateway sends one multimodal request per Parse call. It never retries.
type Gateway struct {
	model    llm.Model
	validate *validator.Validate
	logger   *applog.Logger
}

func NewGateway(model llm.Model, logger *applog.Logger) *Gateway {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentReceipt)
	}
	return &Gateway{
		model:    model,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Parse extracts an expense from a base64 image. A data URL prefix is
// accepted and its media type wins over mimeType.
func (g *Gateway) Parse(ctx context.Context, image, mimeType string) (core.ParsedReceipt, error) {
	data, mime, err := decodeImage(image, mimeType)
	if err != nil {
		g.logger.WarnContext(ctx, "Receipt rejected",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeValidation)
		return core.ParsedReceipt{}, err
	}

	raw, err := g.model.GenerateObject(ctx, llm.ObjectRequest{
		System: systemPrompt,
		Parts: []llm.Part{
			{Data: data, MIMEType: mime},
			{Text: userInstruction},
		},
		Schema: Schema(),
	})
	if err != nil {
		return core.ParsedReceipt{}, g.upstream(ctx, "generate receipt", err)
	}

	parsed, err := g.decode(raw)
	if err != nil {
		return core.ParsedReceipt{}, g.upstream(ctx, "decode receipt", err)
	}

	g.logger.InfoContext(ctx, "Receipt parsed",
		applog.FieldEntryLabel, parsed.Label,
		applog.FieldAmount, parsed.Amount,
		applog.FieldCategory, parsed.Category)
	return parsed, nil
}

func (g *Gateway) decode(raw []byte) (core.ParsedReceipt, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return core.ParsedReceipt{}, fmt.Errorf("response does not match schema: %w", err)
	}
	if dec.More() {
		return core.ParsedReceipt{}, errors.New("response has trailing data")
	}

	if err := g.validate.Struct(p); err != nil {
		return core.ParsedReceipt{}, fmt.Errorf("response does not match schema: %w", err)
	}

	out := core.ParsedReceipt{
		Amount:     *p.Amount,
		Label:      strings.TrimSpace(*p.Label),
		Category:   strings.TrimSpace(*p.Category),
		Recurrence: core.Recurrence(p.Recurrence),
		Notes:      strings.TrimSpace(p.Notes),
	}
	if out.Recurrence == core.Recurring {
		out.Frequency = core.Frequency(p.Frequency)
	}
	return out, nil
}

func (g *Gateway) upstream(ctx context.Context, op string, err error) error {
	g.logger.ErrorContext(ctx, "Receipt parsing failed",
		applog.FieldOperation, op,
		applog.FieldError, err,
		applog.FieldErrorType, applog.ErrorTypeUpstream)
	return &llm.UpstreamError{Op: op, Err: err}
}

func decodeImage(image, mimeType string) ([]byte, string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, "", &llm.ValidationError{Message: msgImageRequired}
	}

	mime := strings.TrimSpace(mimeType)
	if rest, ok := strings.CutPrefix(image, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", &llm.ValidationError{Message: "Image data URL must be base64 encoded"}
		}
		if m := strings.TrimSuffix(header, ";base64"); m != "" {
			mime = m
		}
		image = body
	}
	if mime == "" {
		mime = defaultMIMEType
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", &llm.ValidationError{Message: fmt.Sprintf("Unsupported media type %q", mime)}
	}

	if base64.StdEncoding.DecodedLen(len(image)) > MaxImageBytes+3 {
		return nil, "", &llm.ValidationError{Message: msgImageTooLarge}
	}
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, "", &llm.ValidationError{Message: "Image data is not valid base64"}
	}
	if len(data) == 0 {
		return nil, "", &llm.ValidationError{Message: msgImageRequired}
	}
	if len(data) > MaxImageBytes {
		return nil, "", &llm.ValidationError{Message: msgImageTooLarge}
	}
	return data, mime, nil
}

// Schema is the response schema sent with every request.
func Schema() *llm.Schema {
	return &llm.Schema{
		Type:     llm.TypeObject,
		Required: []string{"amount", "label", "category", "recurrence"},
		Ordering: []string{"amount", "label", "category", "recurrence", "frequency", "notes"},
		Properties: map[string]*llm.Schema{
			"amount": {
				Type:        llm.TypeNumber,
				Description: "The total amount on the receipt",
			},
			"label": {
				Type:        llm.TypeString,
				Description: "The merchant or store name, or a short description of the purchase",
			},
			"category": {
				Type:        llm.TypeString,
				Description: "A suggested expense category. Choose from: " + strings.Join(core.ReceiptCategories, ", "),
			},
			"recurrence": {
				Type:        llm.TypeString,
				Enum:        []string{string(core.OneTime), string(core.Recurring)},
				Description: "Whether this is a one-time purchase or a recurring expense. Use 'recurring' for subscriptions, memberships, utility bills, rent, insurance, etc. Use 'one-time' for regular purchases like groceries, restaurants, shopping, etc.",
			},
			"frequency": {
				Type:        llm.TypeString,
				Enum:        []string{string(core.Weekly), string(core.Monthly), string(core.Yearly)},
				Description: "If recurring, the frequency of the expense. Most subscriptions and bills are 'monthly'. Use 'yearly' for annual memberships or insurance. Use 'weekly' for weekly services.",
			},
			"notes": {
				Type:        llm.TypeString,
				Description: "Any additional details like date, specific items, or receipt number",
			},
		},
	}
}
