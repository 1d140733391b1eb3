package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/souq-b2b/souq-b2b/internal/accounts"
	"github.com/souq-b2b/souq-b2b/internal/cart"
	"github.com/souq-b2b/souq-b2b/internal/integrations/orders"
	"github.com/souq-b2b/souq-b2b/internal/platform/httpx"
)

// SubmitRequest carries the chosen payment method for a one-shot checkout.
type SubmitRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash visa benefitpay flooss credit"`
}

// Handler exposes the checkout flow over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the checkout handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches checkout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/checkout", h.Submit)
	r.Delete("/checkout", h.Cancel)
}

// Submit drives the whole flow for one request: revalidation, payment
// selection, admission control, and the gateway handshake.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	session := r.Header.Get(cart.SessionHeader)
	if session == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Session", "X-Session-ID header is required")
		return
	}

	var req SubmitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Unknown Payment Method", err.Error())
		return
	}

	ctx := r.Context()
	if _, _, err := h.service.Begin(ctx, session); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.service.SelectPayment(session, method); err != nil {
		h.respondError(w, err)
		return
	}
	draft, err := h.service.Submit(ctx, session)
	if err != nil {
		h.respondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"status":        string(StateSubmitted),
		"company":       draft.Company,
		"employee":      draft.Employee,
		"items":         len(draft.Items),
		"pricing":       draft.Pricing,
		"paymentMethod": draft.Method,
	})
}

// Cancel abandons the session's checkout flow.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	session := r.Header.Get(cart.SessionHeader)
	if session == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Session", "X-Session-ID header is required")
		return
	}
	if err := h.service.Cancel(session); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var mismatch *cart.StockMismatchError
	var credit *CreditLimitExceededError
	switch {
	case errors.As(err, &mismatch):
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"error":      "stock_mismatch",
			"mismatches": mismatch.Mismatches,
		})
	case errors.As(err, &credit):
		httpx.JSON(w, http.StatusPaymentRequired, map[string]any{
			"error":      "credit_limit_exceeded",
			"account":    credit.Account,
			"grandTotal": credit.GrandTotal,
			"available":  credit.Available,
		})
	case errors.Is(err, accounts.ErrAccountNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Account Not Found", err.Error())
	case errors.Is(err, ErrAccountInactive):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Account Inactive", err.Error())
	case errors.Is(err, ErrCartEmpty):
		httpx.Problem(w, http.StatusBadRequest, "Cart Empty", err.Error())
	case errors.Is(err, ErrSubmissionInFlight):
		httpx.Problem(w, http.StatusConflict, "Submission In Flight", err.Error())
	case errors.Is(err, orders.ErrRejected):
		httpx.Problem(w, http.StatusBadGateway, "Order Rejected", err.Error())
	case errors.Is(err, cart.ErrStoreUnavailable):
		h.logger.Error("cart store failure", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "cart storage is unavailable")
	default:
		h.logger.Error("checkout failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Submission Failed", err.Error())
	}
}
