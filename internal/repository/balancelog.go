package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
)

const balanceLogColumns = `id, organization_id, payment_id, amount, balance_after, created_at`

type BalanceLogRepository struct {
	db *sql.DB
}

func NewBalanceLogRepository(db *sql.DB) *BalanceLogRepository {
	return &BalanceLogRepository{db: db}
}

func (r *BalanceLogRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.BalanceLog) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO balance_logs (
			id, organization_id, payment_id, amount, balance_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.OrganizationID, entry.PaymentID,
		entry.Amount, entry.BalanceAfter, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *BalanceLogRepository) GetByOrganizationID(ctx context.Context, organizationID uuid.UUID) ([]domain.BalanceLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+balanceLogColumns+` FROM balance_logs
		WHERE organization_id = $1 ORDER BY created_at, id`, organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByOrganizationID: %w", err)
	}
	defer rows.Close()

	var entries []domain.BalanceLog
	for rows.Next() {
		e, err := scanBalanceLog(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByOrganizationID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByOrganizationID: rows: %w", err)
	}
	return entries, nil
}

func (r *BalanceLogRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]domain.BalanceLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+balanceLogColumns+` FROM balance_logs
		WHERE payment_id = $1 ORDER BY created_at`, paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByPaymentID: %w", err)
	}
	defer rows.Close()

	var entries []domain.BalanceLog
	for rows.Next() {
		e, err := scanBalanceLog(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByPaymentID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByPaymentID: rows: %w", err)
	}
	return entries, nil
}

func scanBalanceLog(s scanner) (*domain.BalanceLog, error) {
	var e domain.BalanceLog
	err := s.Scan(
		&e.ID, &e.OrganizationID, &e.PaymentID,
		&e.Amount, &e.BalanceAfter, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
