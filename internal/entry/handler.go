package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"collablist/internal/entry/model"
	"collablist/internal/entry/service"
	"collablist/middleware"
	"collablist/pkg/logger"
	"collablist/store"
)

// MaxBodyBytes caps the size of an append request.
const MaxBodyBytes = 64 << 10

type EntryHandler struct {
	Service *service.EntryService
}

func NewEntryHandler(service *service.EntryService) *EntryHandler {
	return &EntryHandler{Service: service}
}

// Entries serves GET (snapshot) and POST (append) on one collection.
func (h *EntryHandler) Entries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getSnapshot(w, r)
	case http.MethodPost:
		h.appendEntry(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EntryHandler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("collection")
	if path == "" {
		http.Error(w, "Missing collection parameter", http.StatusBadRequest)
		return
	}

	snap, err := h.Service.Snapshot(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *EntryHandler) appendEntry(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("collection")
	if path == "" {
		http.Error(w, "Missing collection parameter", http.StatusBadRequest)
		return
	}

	var req model.AppendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID := r.Context().Value(middleware.UserIDKey).(string)

	entry, err := h.Service.Append(r.Context(), userID, path, req.Fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// Schema describes the fields of a collection to clients building a form.
func (h *EntryHandler) Schema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, schema, err := h.Service.Resolve(r.URL.Query().Get("collection"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schema)
}

func writeError(w http.ResponseWriter, err error) {
	var vErr *store.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: vErr.Error(), Field: vErr.Field})
	case errors.Is(err, store.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnknownCollection):
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
	default:
		logger.Sugar.Errorf("Handler: entry request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Database error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
