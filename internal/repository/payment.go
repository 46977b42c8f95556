package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
)

const paymentColumns = `id, operation_id, amount, payer_inn, document_number,
	document_date, created_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) GetByOperationID(ctx context.Context, operationID uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE operation_id = $1`, operationID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByOperationID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByOperationID: %w", err)
	}
	return p, nil
}

// ExistsOperation is the in-transaction re-check of the dedup key,
// guarding against an operation slipping in between the caller's
// pre-check and the transaction opening.
func (r *PaymentRepository) ExistsOperation(ctx context.Context, tx *sql.Tx, operationID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE operation_id = $1)`, operationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsOperation: %w", err)
	}
	return exists, nil
}

// Create inserts the payment. A unique violation on operation_id is
// reported as domain.ErrDuplicateOperation: the constraint, not any
// application-level check, is what closes the race between concurrent
// deliveries of the same operation.
func (r *PaymentRepository) Create(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (
			id, operation_id, amount, payer_inn, document_number,
			document_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		payment.ID, payment.OperationID, payment.Amount, payment.PayerINN,
		payment.DocumentNumber, payment.DocumentDate, payment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateOperation)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(
		&p.ID, &p.OperationID, &p.Amount, &p.PayerINN,
		&p.DocumentNumber, &p.DocumentDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
