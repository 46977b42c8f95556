package service

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
)

// Notification is one inbound bank webhook payload. Fields arrive as
// raw strings so every constraint violation can be reported per field
// instead of failing at decode time.
type Notification struct {
	OperationID    string
	Amount         string
	PayerINN       string
	DocumentNumber string
	DocumentDate   string
}

const maxDocumentNumberLen = 255

// Amounts are NUMERIC(15,2): at most 2 fractional digits and at most
// 13 integer digits, i.e. strictly less than 10^13.
var maxAmount = decimal.New(1, 13)

type parsedNotification struct {
	OperationID    uuid.UUID
	Amount         decimal.Decimal
	PayerINN       string
	DocumentNumber string
	DocumentDate   time.Time
}

func (n Notification) parse() (*parsedNotification, []domain.FieldError) {
	var (
		p    parsedNotification
		errs []domain.FieldError
	)

	if n.OperationID == "" {
		errs = append(errs, domain.FieldError{Field: "operation_id", Message: "required"})
	} else if id, err := uuid.Parse(n.OperationID); err != nil {
		errs = append(errs, domain.FieldError{Field: "operation_id", Message: "must be a valid UUID"})
	} else {
		p.OperationID = id
	}

	if n.Amount == "" {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "required"})
	} else if amount, err := decimal.NewFromString(n.Amount); err != nil {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must be a decimal number"})
	} else if fieldErr := validateAmount(amount); fieldErr != nil {
		errs = append(errs, *fieldErr)
	} else {
		p.Amount = amount
	}

	if msg := ValidateINN(n.PayerINN); msg != "" {
		errs = append(errs, domain.FieldError{Field: "payer_inn", Message: msg})
	} else {
		p.PayerINN = n.PayerINN
	}

	if n.DocumentNumber == "" {
		errs = append(errs, domain.FieldError{Field: "document_number", Message: "required"})
	} else if utf8.RuneCountInString(n.DocumentNumber) > maxDocumentNumberLen {
		errs = append(errs, domain.FieldError{Field: "document_number", Message: "must be at most 255 characters"})
	} else {
		p.DocumentNumber = n.DocumentNumber
	}

	if n.DocumentDate == "" {
		errs = append(errs, domain.FieldError{Field: "document_date", Message: "required"})
	} else if ts, err := time.Parse(time.RFC3339, n.DocumentDate); err != nil {
		errs = append(errs, domain.FieldError{Field: "document_date", Message: "must be an ISO-8601 timestamp"})
	} else {
		p.DocumentDate = ts
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &p, nil
}

func validateAmount(amount decimal.Decimal) *domain.FieldError {
	if !amount.IsPositive() {
		return &domain.FieldError{Field: "amount", Message: "must be greater than zero"}
	}
	if amount.Exponent() < -2 {
		return &domain.FieldError{Field: "amount", Message: "must have at most 2 decimal places"}
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return &domain.FieldError{Field: "amount", Message: "must have at most 15 digits"}
	}
	return nil
}

// ValidateINN reports why inn is not a syntactically valid tax
// identifier, or "" when it is. Shared by ingestion validation and the
// balance query path.
func ValidateINN(inn string) string {
	if inn == "" {
		return "required"
	}
	if len(inn) != 10 && len(inn) != 12 {
		return "must be 10 or 12 digits"
	}
	for _, c := range inn {
		if c < '0' || c > '9' {
			return "must contain only digits"
		}
	}
	return ""
}
