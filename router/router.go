package router

import (
	"net/http"

	authHandler "collablist/internal/auth"
	authService "collablist/internal/auth/service"
	entryHandler "collablist/internal/entry"
	entryService "collablist/internal/entry/service"
	"collablist/middleware"
	"collablist/socket"
)

func Setup(hub *socket.Hub, entries *entryService.EntryService, auth *authService.AuthService) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.AuthMiddleware(auth)

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, r, userID)
	})
	mux.Handle("/ws", requireAuth(wsHandler))

	// Identity
	authH := authHandler.NewAuthHandler(auth)
	mux.HandleFunc("/api/auth/anonymous", authH.SignInAnonymous)
	mux.HandleFunc("/api/auth/token", authH.SignInWithToken)

	// Collections
	entryH := entryHandler.NewEntryHandler(entries)
	mux.Handle("/api/collections/entries", requireAuth(http.HandlerFunc(entryH.Entries)))
	mux.HandleFunc("/api/collections/schema", entryH.Schema)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return middleware.CORSMiddleware(mux)
}
