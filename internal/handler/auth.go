package handler

import (
	"net/http"

	"github.com/clipdigest/backend/internal/service"
)

// AuthHandler exchanges OAuth bearers for session tokens.
type AuthHandler struct {
	ids *service.IdentityService
}

func NewAuthHandler(ids *service.IdentityService) *AuthHandler {
	return &AuthHandler{ids: ids}
}

type exchangeRequest struct {
	Token string `json:"token" validate:"required"`
}

// Exchange handles POST /auth/exchange.
func (h *AuthHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	session, id, err := h.ids.Exchange(r.Context(), req.Token)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"token": session,
		"user":  id,
	})
}
