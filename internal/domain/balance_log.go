package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceLog is an append-only audit entry tying one balance change to
// the payment that caused it. BalanceAfter is the organization's
// balance immediately after the delta was applied. Exactly one entry
// exists per applied payment.
type BalanceLog struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	PaymentID      uuid.UUID
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	CreatedAt      time.Time
}
