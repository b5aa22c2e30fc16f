package handler

import (
	"encoding/json"
	"net/http"

	"collablist/internal/auth/model"
	"collablist/internal/auth/service"
	"collablist/pkg/logger"
)

type AuthHandler struct {
	Service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{Service: service}
}

func (h *AuthHandler) SignInAnonymous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := h.Service.SignInAnonymous()
	if err != nil {
		logger.Sugar.Errorf("Handler: anonymous sign-in failed: %v", err)
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	logger.Sugar.Infof("Anonymous user %s signed in", session.UserID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (h *AuthHandler) SignInWithToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.TokenSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.Service.SignInWithToken(req.Token)
	if err != nil {
		logger.Sugar.Warnf("Token sign-in rejected: %v", err)
		http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}
