package handler

import (
	"net/http"

	"github.com/clipdigest/backend/internal/domain"
)

// PlansHandler handles plan-related endpoints.
type PlansHandler struct {
	registry *domain.Registry
}

// NewPlansHandler creates a new PlansHandler.
func NewPlansHandler(registry *domain.Registry) *PlansHandler {
	return &PlansHandler{registry: registry}
}

// List handles GET /api/plans.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.registry.Plans())
}
