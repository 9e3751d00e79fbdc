package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mongopad/mongopad/core/export"
	"github.com/mongopad/mongopad/core/transport/http/dto"
)

// listExecutions returns paginated history, newest first. With ?summary=1
// the rows carry a truncated result preview instead of the full payload.
func (h *Handlers) listExecutions(w http.ResponseWriter, r *http.Request) {
	limit := clampLimit(r.URL.Query().Get("limit"))
	offset := clampOffset(r.URL.Query().Get("offset"))

	if summary := r.URL.Query().Get("summary"); summary == "1" || summary == "true" {
		summaries, err := h.store.ListExecutionSummaries(r.Context(), limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
		return
	}

	executions, err := h.store.ListExecutions(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, executions)
}

func (h *Handlers) getExecution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	execution, err := h.store.GetExecution(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, execution)
}

// exportExecution downloads one recorded result as json, csv or txt
func (h *Handlers) exportExecution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}

	execution, err := h.store.GetExecution(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("result-%s.%s",
		execution.ExecutedAt.Format(time.RFC3339), format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := format.Encode(w, execution.Result); err != nil {
		h.log.PrintError("Failed to encode export", err)
	}
}
