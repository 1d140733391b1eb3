package cart

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/souq-b2b/souq-b2b/internal/platform/httpx"
)

// SessionHeader carries the session identifier issued by the surrounding
// application; session issuance itself lives outside this core.
const SessionHeader = "X-Session-ID"

// Handler exposes the cart over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the cart handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cart", h.Show)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{entryID}", h.SetQuantity)
	r.Delete("/cart/items/{entryID}", h.RemoveItem)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := r.Header.Get(SessionHeader)
	if session == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Session", "X-Session-ID header is required")
		return "", false
	}
	return session, true
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.service.View(r.Context(), session)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.ToInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	item, err := h.service.Add(r.Context(), session, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	entryID := chi.URLParam(r, "entryID")
	var req SetQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetQuantity(r.Context(), session, entryID, req.Quantity); err != nil {
		h.respondError(w, err)
		return
	}
	view, err := h.service.View(r.Context(), session)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), session, chi.URLParam(r, "entryID")); err != nil {
		h.respondError(w, err)
		return
	}
	view, err := h.service.View(r.Context(), session)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var exceeded *StockExceededError
	switch {
	case errors.As(err, &exceeded):
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"error":       "stock_exceeded",
			"productName": exceeded.ProductName,
			"requested":   exceeded.Requested,
			"available":   exceeded.Available,
		})
	case errors.Is(err, ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		h.logger.Error("cart store failure", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "cart storage is unavailable")
	default:
		h.logger.Error("cart request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
