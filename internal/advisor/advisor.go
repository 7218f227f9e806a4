// Package advisor answers "what-if" budget questions with a streamed
// model response.
package advisor

import (
	"context"
	"errors"
	"iter"
	"strings"

	"budgetx/internal/llm"
	applog "budgetx/internal/log"
)

const msgQuestionRequired = "Question is required"

const systemPrompt = `You are a friendly and knowledgeable personal financial advisor for students and young adults. Your role is to analyze "what-if" financial scenarios based on the user's actual budget data.

When responding to questions:
1. Always reference the user's actual numbers from their budget data
2. Calculate specific impacts (monthly and annual) based on their real income/expenses
3. Be encouraging but realistic about financial decisions
4. Format your response clearly with these sections:
   - **Impact Analysis**: Quantify the financial impact using their actual numbers
   - **Considerations**: Important factors to think about
   - **Recommendations**: Actionable advice tailored to their situation

Use emojis sparingly for visual clarity:
- 📊 for budget/numbers sections
- ⚠️ for warnings or considerations
- 💡 for tips and recommendations
- ✨ for positive opportunities

Keep responses concise but informative. Focus on practical, actionable insights.`

// Prompt builds the user message sent to the model.
func Prompt(question, budgetContext string) string {
	return "Here is my current budget data:\n\n" + budgetContext + "\n\nMy question: " + question
}

// Gateway relays one streaming model call per question. It never retries.
type Gateway struct {
	model  llm.Model
	logger *applog.Logger
}

func NewGateway(model llm.Model, logger *applog.Logger) *Gateway {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentAdvisor)
	}
	return &Gateway{model: model, logger: logger}
}

// Stream starts the model call and returns its fragments in emission
// order. A blank question is rejected before any upstream call. The first
// fragment is fetched before Stream returns, so a call that fails outright
// surfaces as an error here rather than in the iterator. Empty fragments
// are skipped. Cancelling ctx stops the upstream stream.
//
// The returned iterator is single-use and must be ranged over, even if
// only to break out immediately, so the upstream call is released.
func (g *Gateway) Stream(ctx context.Context, question, budgetContext string) (iter.Seq2[string, error], error) {
	if strings.TrimSpace(question) == "" {
		return nil, &llm.ValidationError{Message: msgQuestionRequired}
	}

	ctx, cancel := context.WithCancel(ctx)
	next, stop := iter.Pull2(g.model.StreamText(ctx, llm.TextRequest{
		System: systemPrompt,
		Prompt: Prompt(question, budgetContext),
	}))
	release := func() {
		cancel()
		stop()
	}

	// Skip leading empty fragments so the caller only commits to a
	// response once real text exists.
	var first string
	for {
		frag, err, ok := next()
		if !ok {
			break
		}
		if err != nil {
			release()
			return nil, g.upstream(ctx, err)
		}
		if frag != "" {
			first = frag
			break
		}
	}

	g.logger.DebugContext(ctx, "Advice stream started", "first_fragment_bytes", len(first))

	return func(yield func(string, error) bool) {
		defer release()

		if first == "" {
			return
		}
		if !yield(first, nil) {
			return
		}
		for {
			frag, err, ok := next()
			if !ok {
				return
			}
			if err != nil {
				yield("", g.upstream(ctx, err))
				return
			}
			if frag == "" {
				continue
			}
			if !yield(frag, nil) {
				return
			}
		}
	}, nil
}

func (g *Gateway) upstream(ctx context.Context, err error) error {
	level := g.logger.ErrorContext
	if errors.Is(err, context.Canceled) {
		level = g.logger.WarnContext
	}
	level(ctx, "Advice stream failed",
		applog.FieldOperation, applog.OpAdvise,
		applog.FieldError, err,
		applog.FieldErrorType, applog.ErrorTypeUpstream)
	return &llm.UpstreamError{Op: "stream advice", Err: err}
}
