package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one bank-reported payment event. OperationID is the dedup
// key: the store enforces its uniqueness and no two payments may share
// one. Immutable once created.
type Payment struct {
	ID             uuid.UUID
	OperationID    uuid.UUID
	Amount         decimal.Decimal
	PayerINN       string
	DocumentNumber string
	DocumentDate   time.Time
	CreatedAt      time.Time
}
