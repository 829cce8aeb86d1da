package handler

import (
	"context"
	"net/http"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/clipdigest/backend/internal/service"
)

// PaymentHandler serves checkout creation and settlement verification.
type PaymentHandler struct {
	payments *service.PaymentService
	ids      *service.IdentityService
}

func NewPaymentHandler(payments *service.PaymentService, ids *service.IdentityService) *PaymentHandler {
	return &PaymentHandler{payments: payments, ids: ids}
}

type createOrderRequest struct {
	UserID       int64  `json:"userId"`
	GoogleUserID string `json:"googleUserId"`
	Email        string `json:"email" validate:"omitempty,email"`
	Type         string `json:"type" validate:"required"`
}

type createOrderResponse struct {
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
	OrderID string `json:"orderId"`
}

func (h *PaymentHandler) create(w http.ResponseWriter, r *http.Request, bt domain.BusinessType) {
	var req createOrderRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	// googleUserId doubles as the guest identity for not-yet-registered buyers.
	subject, err := h.ids.ResolveSubject(r.Context(), req.UserID, req.GoogleUserID)
	if err != nil {
		Error(w, err)
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), subject, req.Email, req.Type, bt)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, createOrderResponse{
		Status:  "success",
		URL:     order.CheckoutURL,
		OrderID: order.OrderNo,
	})
}

// Create handles POST /pay/create (Stripe redirect checkout).
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.BusinessStripeCheckout)
}

// PayPalCreate handles POST /pay/paypal-create (PayPal redirect checkout).
func (h *PaymentHandler) PayPalCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.BusinessPayPalCheckout)
}

// PayPalSmartCreate handles POST /pay/paypal-smart-create. The gateway call
// must succeed; the local order log is best-effort and never fails the
// response.
func (h *PaymentHandler) PayPalSmartCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	subject, err := h.ids.ResolveSubject(r.Context(), req.UserID, req.GoogleUserID)
	if err != nil {
		Error(w, err)
		return
	}

	order, err := h.payments.CreateSmartOrder(r.Context(), subject, req.Email, req.Type)
	if err != nil {
		Error(w, err)
		return
	}
	// The smart button needs the gateway's own order id to render.
	JSON(w, http.StatusOK, createOrderResponse{
		Status:  "success",
		OrderID: order.ProviderRef,
	})
}

type captureRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// PayPalSmartCapture handles POST /pay/paypal-smart-capture.
func (h *PaymentHandler) PayPalSmartCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	res, err := h.payments.CaptureSmart(r.Context(), req.OrderID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Verify handles GET /pay/verify. It is the endpoint the client-side
// reconciler polls with the gateway redirect's query string.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.payments.Verify(r.Context(), r.URL.Query())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Await handles GET /pay/await: the same verification, but the bounded
// polling runs server-side so a client can wait with a single request.
func (h *PaymentHandler) Await(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var last *service.VerifyResult
	rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
		res, err := h.payments.Verify(ctx, query)
		if err != nil {
			return false, err
		}
		last = res
		return res.Status == "success", nil
	})

	if query.Get("order_no") == "" || (query.Get("session_id") == "" && query.Get("token") == "") {
		rec.Invalidate()
		Error(w, domain.ErrBadRequest("missing payment correlation parameters"))
		return
	}

	state := rec.Run(r.Context())
	JSON(w, http.StatusOK, map[string]any{
		"state":    state,
		"attempts": rec.Attempts(),
		"result":   last,
	})
}
