package handler

import (
	"net/http"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/clipdigest/backend/internal/service"
)

// UsageHandler serves the ledger endpoints.
type UsageHandler struct {
	ledger *service.LedgerService
	reward *service.RewardService
	ids    *service.IdentityService
}

func NewUsageHandler(ledger *service.LedgerService, reward *service.RewardService, ids *service.IdentityService) *UsageHandler {
	return &UsageHandler{ledger: ledger, reward: reward, ids: ids}
}

type subjectRequest struct {
	UserID  int64  `json:"userId"`
	GuestID string `json:"guestId"`
}

// Get handles POST /usage/get.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	subject, err := h.ids.ResolveSubject(r.Context(), req.UserID, req.GuestID)
	if err != nil {
		Error(w, err)
		return
	}

	rec, err := h.ledger.GetOrCreate(r.Context(), subject)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, rec)
}

type consumeRequest struct {
	UserID  int64  `json:"userId"`
	GuestID string `json:"guestId"`
	Type    string `json:"type" validate:"required,oneof=download extract summary"`
	Action  string `json:"action" validate:"omitempty,oneof=check consume"`
}

// CheckAndConsume handles POST /usage/check-and-consume. An omitted action
// performs check-then-consume as one call; "check" only reads, "consume"
// increments unconditionally.
func (h *UsageHandler) CheckAndConsume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	subject, err := h.ids.ResolveSubject(r.Context(), req.UserID, req.GuestID)
	if err != nil {
		Error(w, err)
		return
	}
	action := domain.Action(req.Type)

	switch req.Action {
	case "check":
		allow, err := h.ledger.CheckAllowance(r.Context(), subject, action)
		if err != nil {
			Error(w, err)
			return
		}
		JSON(w, http.StatusOK, allow)

	case "consume":
		rec, err := h.ledger.Consume(r.Context(), subject, action)
		if err != nil {
			Error(w, err)
			return
		}
		JSON(w, http.StatusOK, domain.Allowance{Allowed: true, Usage: rec})

	default:
		allow, err := h.ledger.CheckAndConsume(r.Context(), subject, action)
		if err != nil {
			Error(w, err)
			return
		}
		JSON(w, http.StatusOK, allow)
	}
}

type surveyRequest struct {
	UserID     int64  `json:"userId"`
	SurveyData string `json:"surveyData"`
}

type surveyResponse struct {
	Success bool                `json:"success"`
	Usage   *domain.UsageRecord `json:"usage"`
}

// SurveySubmit handles POST /usage/survey-submit.
func (h *UsageHandler) SurveySubmit(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	userID := req.UserID
	if subject, err := h.ids.ResolveSubject(r.Context(), req.UserID, ""); err == nil && subject.IsUser() {
		userID = subject.UserID
	}

	rec, err := h.reward.SubmitSurvey(r.Context(), userID, req.SurveyData)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, surveyResponse{Success: true, Usage: rec})
}
