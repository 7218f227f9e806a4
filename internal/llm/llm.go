// Package llm defines the small surface the gateways need from a hosted
// language model. Adapters (see llm/gemini) translate it to a vendor SDK;
// tests substitute fakes.
package llm

import (
	"context"
	"iter"
)

// Schema constrains the shape of a structured response. Only the subset
// the gateways need is modelled.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Required    []string
	Enum        []string
	// Ordering lists property names in the order the model should emit them.
	Ordering []string
}

const (
	TypeObject = "object"
	TypeString = "string"
	TypeNumber = "number"
)

// Part is one piece of user content: either text or inline binary data.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

type ObjectRequest struct {
	System string
	Parts  []Part
	Schema *Schema
}

type TextRequest struct {
	System string
	Prompt string
}

type Model interface {
	// GenerateObject returns the raw JSON document the model produced for
	// the schema. Callers must validate it.
	GenerateObject(ctx context.Context, req ObjectRequest) ([]byte, error)
	// StreamText yields text fragments in emission order. Iteration stops
	// at the first error or when ctx is done.
	StreamText(ctx context.Context, req TextRequest) iter.Seq2[string, error]
}
