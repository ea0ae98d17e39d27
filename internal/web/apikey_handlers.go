package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/forum-notes/internal/auth"
)

// apikeyHandlers lets an authenticated user manage their own API keys.
type apikeyHandlers struct {
	apiKeys *auth.APIKeyStore
}

type apiKeyResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

type apiKeyCreateResponse struct {
	Key            string         `json:"key"` // raw key, shown once
	APIKeyResponse apiKeyResponse `json:"api_key"`
}

func toAPIKeyResponse(k *auth.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format("2006-01-02T15:04:05Z")
		resp.LastUsedAt = &s
	}
	return resp
}

// handleAPIKeysRoute routes /api/keys and /api/keys/{id}.
func (h *apikeyHandlers) handleAPIKeysRoute(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID <= 0 {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/keys")

	// /api/keys (no trailing path)
	if path == "" || path == "/" {
		switch r.Method {
		case http.MethodGet:
			h.handleListKeys(w, r, userID)
		case http.MethodPost:
			h.handleCreateKey(w, r, userID)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/keys/{id}
	if r.Method == http.MethodDelete {
		h.handleDeleteKey(w, r, userID, strings.TrimPrefix(path, "/"))
		return
	}

	apiError(w, "method not allowed", http.StatusMethodNotAllowed)
}

// handleCreateKey generates a new API key for the caller.
func (h *apikeyHandlers) handleCreateKey(w http.ResponseWriter, r *http.Request, userID int64) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := h.apiKeys.Create(r.Context(), name, userID)
	if err != nil {
		slog.Error("creating api key", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKeyResponse: toAPIKeyResponse(key)}, http.StatusCreated)
}

// handleListKeys returns the caller's API keys (without raw keys).
func (h *apikeyHandlers) handleListKeys(w http.ResponseWriter, r *http.Request, userID int64) {
	keys, err := h.apiKeys.List(r.Context(), userID)
	if err != nil {
		slog.Error("listing api keys", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]apiKeyResponse, len(keys))
	for i := range keys {
		resp[i] = toAPIKeyResponse(&keys[i])
	}
	apiJSON(w, resp, http.StatusOK)
}

// handleDeleteKey revokes one of the caller's API keys.
func (h *apikeyHandlers) handleDeleteKey(w http.ResponseWriter, r *http.Request, userID int64, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}

	if err := h.apiKeys.Delete(r.Context(), id, userID); err != nil {
		slog.Warn("deleting api key", "id", id, "err", err)
		apiError(w, "key not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
