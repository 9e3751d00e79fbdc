package http

import (
	"encoding/json"
	"net/http"

	"github.com/mongopad/mongopad/core/domain"
	"github.com/mongopad/mongopad/core/transport/http/dto"
)

// execute runs ad-hoc code, or a saved script when only scriptId is given.
// Every attempt is logged as one Execution row by the runner before the
// response is written.
func (h *Handlers) execute(w http.ResponseWriter, r *http.Request) {
	var req dto.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: validationMessage(err)})
		return
	}

	code := req.Code
	kind := domain.ScriptType(req.Type)

	if code == "" {
		if req.ScriptID == nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "code or scriptId is required"})
			return
		}
		script, err := h.store.GetScript(r.Context(), *req.ScriptID)
		if err != nil {
			writeError(w, err)
			return
		}
		code = script.Code
		if kind == "" {
			kind = script.Type
		}
	}
	if kind == "" {
		kind = domain.ScriptTypeQuery
	}

	outcome, err := h.runner.Run(r.Context(), code, kind, req.ScriptID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExecuteResponse{
		Result:     outcome.Result,
		DurationMs: outcome.DurationMs,
		Status:     string(domain.ExecutionStatusSuccess),
	})
}
