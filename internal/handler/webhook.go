package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bulat-nitaliev/payment-task/internal/logging"
	"github.com/bulat-nitaliev/payment-task/internal/service"
)

type ingestionService interface {
	Ingest(ctx context.Context, n service.Notification) (*service.Outcome, error)
}

type WebhookHandler struct {
	ingestion ingestionService
}

func NewWebhookHandler(ingestion ingestionService) *WebhookHandler {
	return &WebhookHandler{ingestion: ingestion}
}

type webhookRequest struct {
	OperationID    string      `json:"operation_id"`
	Amount         json.Number `json:"amount"`
	PayerINN       string      `json:"payer_inn"`
	DocumentNumber string      `json:"document_number"`
	DocumentDate   string      `json:"document_date"`
}

type webhookResponse struct {
	Status      string           `json:"status"`
	OperationID string           `json:"operation_id"`
	PayerINN    string           `json:"payer_inn,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
}

// ReceivePaymentWebhook handles one bank payment notification. Both a
// fresh application and a duplicate delivery answer 200: the sender
// must see retries as success so it stops redelivering.
func (h *WebhookHandler) ReceivePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("failed to parse webhook payload", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	outcome, err := h.ingestion.Ingest(r.Context(), service.Notification{
		OperationID:    req.OperationID,
		Amount:         req.Amount.String(),
		PayerINN:       req.PayerINN,
		DocumentNumber: req.DocumentNumber,
		DocumentDate:   req.DocumentDate,
	})
	if err != nil {
		log.Error("payment ingestion failed", "operation_id", req.OperationID, "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	switch outcome.Status {
	case service.OutcomeRejected:
		log.Warn("invalid webhook payload", "operation_id", req.OperationID, "fields", outcome.Fields)
		RespondValidationError(w, outcome.Fields)

	case service.OutcomeDuplicate:
		log.Info("duplicate webhook received", "operation_id", req.OperationID)
		RespondSuccess(w, http.StatusOK, webhookResponse{
			Status:      "duplicate",
			OperationID: req.OperationID,
		})

	default:
		RespondSuccess(w, http.StatusOK, webhookResponse{
			Status:      "applied",
			OperationID: req.OperationID,
			PayerINN:    req.PayerINN,
			Balance:     &outcome.NewBalance,
		})
	}
}
