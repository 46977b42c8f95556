package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organization is a payer identified by its INN (tax identifier).
// Created lazily the first time a payment for its INN arrives; its
// balance is mutated only by the ingestion transaction.
type Organization struct {
	ID        uuid.UUID
	INN       string
	Balance   decimal.Decimal
	CreatedAt time.Time
}
