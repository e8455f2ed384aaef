package handlers

import (
	"net/http"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/config"
	"github.com/ahsanfayaz52/notesservice/internal/store"
	"github.com/gorilla/mux"
)

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Server is running"})
}

// NewRouter wires every API route. Middleware that depends on external
// services (rate limiting, CORS) is attached by the caller.
func NewRouter(st *store.Store, jwtService *auth.JWTService, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", HealthHandler).Methods("GET")
	api.HandleFunc("/auth/register", RegisterHandler(st, jwtService)).Methods("POST")
	api.HandleFunc("/auth/login", LoginHandler(st, jwtService)).Methods("POST")

	// Authenticated routes
	s := api.PathPrefix("/").Subrouter()
	s.Use(auth.JWTMiddleware(jwtService))

	s.HandleFunc("/auth/profile", ProfileHandler(st)).Methods("GET")

	// /notes/shared must be registered before /notes/{id}
	s.HandleFunc("/notes/shared", SharedNotesHandler(st)).Methods("GET")
	s.HandleFunc("/notes", ListNotesHandler(st)).Methods("GET")
	s.HandleFunc("/notes", CreateNoteHandler(st)).Methods("POST")
	s.HandleFunc("/notes/{id}", GetNoteHandler(st)).Methods("GET")
	s.HandleFunc("/notes/{id}", UpdateNoteHandler(st)).Methods("PUT")
	s.HandleFunc("/notes/{id}", DeleteNoteHandler(st)).Methods("DELETE")
	s.HandleFunc("/notes/{id}/share", ShareNoteHandler(st)).Methods("POST")
	s.HandleFunc("/notes/{id}/shares", ListSharesHandler(st)).Methods("GET")
	s.HandleFunc("/notes/{id}/shares/{username}", RevokeShareHandler(st)).Methods("DELETE")

	s.HandleFunc("/ai/process", AIProcessHandler(cfg)).Methods("POST")

	return r
}
