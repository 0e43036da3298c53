package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/todo"
)

// Handler serves the replica API on top of any Accessor, so a todosync
// node can act as the deployed side for other clients.
type Handler struct {
	store  replica.Accessor
	token  string
	logger *log.Logger
	mux    *http.ServeMux
}

// NewHandler creates an http.Handler for the replica API.
// If token is non-empty, every request must carry it as a bearer token.
func NewHandler(store replica.Accessor, token string, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}

	h := &Handler{store: store, token: token, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/records", h.auth(h.handleList))
	mux.HandleFunc("POST /v1/records", h.auth(h.handleCreate))
	mux.HandleFunc("PUT /v1/records/{id}", h.auth(h.handleUpdate))
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	h.mux = mux

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// auth wraps a handler with bearer-token verification.
func (h *Handler) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != h.token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Printf("list failed: %v", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*todo.Record{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec todo.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid record body", http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), &rec)
	if err != nil {
		if errors.Is(err, replica.ErrInvalidRecord) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Printf("create %s failed: %v", rec.ID, err)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var rec todo.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid record body", http.StatusBadRequest)
		return
	}
	if rec.ID != id {
		http.Error(w, "record id does not match path", http.StatusBadRequest)
		return
	}

	updated, err := h.store.Update(r.Context(), &rec)
	if err != nil {
		switch {
		case errors.Is(err, replica.ErrNotFound):
			http.Error(w, "record not found", http.StatusNotFound)
		case errors.Is(err, replica.ErrInvalidRecord):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Printf("update %s failed: %v", id, err)
			http.Error(w, "update failed", http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Printf("failed to encode response: %v", err)
	}
}
