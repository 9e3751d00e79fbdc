package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mongopad/mongopad/core/domain"
	apperrors "github.com/mongopad/mongopad/core/shared/errors"
	"github.com/mongopad/mongopad/core/transport/http/dto"
)

func (h *Handlers) listScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.store.ListScripts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scripts)
}

func (h *Handlers) getScript(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	script, err := h.store.GetScript(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, script)
}

func (h *Handlers) createScript(w http.ResponseWriter, r *http.Request) {
	var input domain.NewScript
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if err := validate.Struct(input); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: validationMessage(err)})
		return
	}

	script, err := h.store.CreateScript(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Debugf("Created script %d (%s)", script.ID, script.Name)
	writeJSON(w, http.StatusCreated, script)
}

func (h *Handlers) updateScript(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch domain.ScriptPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if err := validate.Struct(patch); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: validationMessage(err)})
		return
	}

	script, err := h.store.UpdateScript(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, script)
}

func (h *Handlers) deleteScript(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteScript(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path parameter; a non-numeric id behaves as an
// unknown one
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewAppError(apperrors.ErrCodeNotFound, "Not found", nil))
		return 0, false
	}
	return id, true
}
