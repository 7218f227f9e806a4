package http

import (
	"net/http"
	"strconv"

	"budgetx/internal/core"
	applog "budgetx/internal/log"
)

// HeaderRevision carries the store revision a stats response was built from.
const HeaderRevision = "X-Budget-Revision"

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.budget.Entries())
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var e core.BudgetEntry
	if err := decodeJSON(w, r, defaultBodyLimit, &e); err != nil {
		writeDecodeError(w, err)
		return
	}
	saved, err := s.budget.AddEntry(r.Context(), e)
	if err != nil {
		s.budgetError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var e core.BudgetEntry
	if err := decodeJSON(w, r, defaultBodyLimit, &e); err != nil {
		writeDecodeError(w, err)
		return
	}
	saved, err := s.budget.UpdateEntry(r.Context(), r.PathValue("id"), e)
	if err != nil {
		s.budgetError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		s.budgetError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateReceiptEntry stores a receipt the user has reviewed.
func (s *Server) handleCreateReceiptEntry(w http.ResponseWriter, r *http.Request) {
	var p core.ParsedReceipt
	if err := decodeJSON(w, r, defaultBodyLimit, &p); err != nil {
		writeDecodeError(w, err)
		return
	}
	saved, err := s.budget.AddFromReceipt(r.Context(), p)
	if err != nil {
		s.budgetError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.budget.History())
}

func (s *Server) handleAppendSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap core.MonthlySnapshot
	if err := decodeJSON(w, r, defaultBodyLimit, &snap); err != nil {
		writeDecodeError(w, err)
		return
	}
	saved, err := s.budget.AppendSnapshot(r.Context(), snap)
	if err != nil {
		s.budgetError(w, r, applog.OpAppend, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.budget.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, revision := s.budget.Summary()
	w.Header().Set(HeaderRevision, strconv.FormatInt(revision, 10))
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(s.budget.BudgetContext()))
}

func (s *Server) budgetError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := budgetErrorStatus(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Budget operation failed",
			applog.FieldOperation, op,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeInternal)
	} else {
		logger.WarnContext(r.Context(), "Budget operation rejected",
			applog.FieldOperation, op,
			applog.FieldError, err,
			applog.FieldStatusCode, status)
	}
	writeError(w, status, msg)
}
