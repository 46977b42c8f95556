package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
	"github.com/bulat-nitaliev/payment-task/internal/logging"
	"github.com/bulat-nitaliev/payment-task/internal/service"
)

type balanceService interface {
	GetBalance(ctx context.Context, inn string) (*domain.Organization, error)
}

type OrganizationHandler struct {
	balances balanceService
}

func NewOrganizationHandler(balances balanceService) *OrganizationHandler {
	return &OrganizationHandler{balances: balances}
}

type balanceDTO struct {
	INN     string          `json:"inn"`
	Balance decimal.Decimal `json:"balance"`
}

func (h *OrganizationHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	inn := r.PathValue("inn")
	if msg := service.ValidateINN(inn); msg != "" {
		RespondValidationError(w, []domain.FieldError{{Field: "inn", Message: msg}})
		return
	}

	org, err := h.balances.GetBalance(r.Context(), inn)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("organization not found", "inn", inn)
		}
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		INN:     org.INN,
		Balance: org.Balance,
	})
}
