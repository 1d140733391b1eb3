package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/souq-b2b/souq-b2b/internal/platform/httpx"
)

// Handler exposes account listings with derived credit standing for the
// account dashboard screens.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the accounts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.List)
}

type accountView struct {
	Name             string          `json:"name"`
	CreditLimit      decimal.Decimal `json:"creditLimit"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	IsActive         bool            `json:"isActive"`
	Status           CreditStatus    `json:"status"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Account Gateway Error", "could not load accounts")
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView{
			Name:             a.Name,
			CreditLimit:      a.CreditLimit,
			CurrentBalance:   a.CurrentBalance,
			AvailableBalance: a.AvailableBalance(),
			IsActive:         a.IsActive,
			Status:           a.Status(),
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}
