package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"budgetx/internal/advisor"
	"budgetx/internal/llm"
	applog "budgetx/internal/log"
)

type receiptRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
}

type simulatorRequest struct {
	Question      string `json:"question"`
	BudgetContext string `json:"budgetContext"`
}

// handleParseReceipt runs the receipt through the vision model. Nothing is
// stored; the client reviews the result and posts it to
// /api/entries/receipt.
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := decodeJSON(w, r, receiptBodyLimit, &req); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgImageRequired)
		return
	}
	if s.receipts == nil {
		writeError(w, http.StatusInternalServerError, msgReceiptFailed)
		return
	}

	parsed, err := s.receipts.Parse(r.Context(), req.Image, req.MIMEType)
	if err != nil {
		var verr *llm.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Receipt parsing failed",
			applog.FieldOperation, applog.OpParse,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeUpstream)
		writeError(w, http.StatusInternalServerError, msgReceiptFailed)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

// handleSimulator streams advice for a what-if question. Without a
// budgetContext in the request the current store is rendered instead.
// Once the first fragment is written the status is committed, so a later
// upstream failure aborts the connection and the client sees a truncated
// body.
func (s *Server) handleSimulator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var req simulatorRequest
	if err := decodeJSON(w, r, defaultBodyLimit, &req); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgQuestionRequired)
		return
	}
	if s.advisor == nil {
		writeError(w, http.StatusInternalServerError, msgAdviceFailed)
		return
	}

	budgetContext := req.BudgetContext
	if strings.TrimSpace(budgetContext) == "" {
		budgetContext = s.budget.BudgetContext()
	}

	fragments, err := s.advisor.Stream(ctx, req.Question, budgetContext)
	if err != nil {
		var verr *llm.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		logger.ErrorContext(ctx, "Advice request failed",
			applog.FieldOperation, applog.OpAdvise,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeUpstream)
		writeError(w, http.StatusInternalServerError, msgAdviceFailed)
		return
	}

	mode := advisor.ModeForAccept(r.Header.Get("Accept"))
	rc := http.NewResponseController(w)
	// Not every writer supports deadlines; the server timeout applies then.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", mode.ContentType())
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fw := advisor.NewWriter(w, mode, rc.Flush)
	written := 0
	for frag, err := range fragments {
		if err != nil {
			logger.ErrorContext(ctx, "Advice stream aborted",
				applog.FieldOperation, applog.OpAdvise,
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeUpstream,
				"fragments_written", written)
			panic(http.ErrAbortHandler)
		}
		if err := fw.WriteFragment(frag); err != nil {
			logger.WarnContext(ctx, "Client went away during advice stream",
				applog.FieldError, err, "fragments_written", written)
			return
		}
		written++
	}
	if err := fw.Close(); err != nil {
		logger.WarnContext(ctx, "Failed to finish advice stream", applog.FieldError, err)
		return
	}
	logger.DebugContext(ctx, "Advice stream completed", "fragments_written", written)
}
