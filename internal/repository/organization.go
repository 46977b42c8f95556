package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
)

const organizationColumns = `id, inn, balance, created_at`

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetByINN(ctx context.Context, inn string) (*domain.Organization, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE inn = $1`, inn,
	)
	o, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByINN: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByINN: %w", err)
	}
	return o, nil
}

// GetOrCreate returns the organization for the given INN, inserting it
// with a zero balance if absent. The upsert is a single statement
// backed by the unique constraint on inn, so concurrent calls for the
// same INN cannot race into two rows. The no-op DO UPDATE makes
// RETURNING yield the existing row on conflict.
func (r *OrganizationRepository) GetOrCreate(ctx context.Context, tx *sql.Tx, org *domain.Organization) (*domain.Organization, error) {
	row := tx.QueryRowContext(ctx,
		`INSERT INTO organizations (id, inn, balance, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (inn) DO UPDATE SET inn = EXCLUDED.inn
		RETURNING `+organizationColumns,
		org.ID, org.INN, org.Balance, org.CreatedAt,
	)
	o, err := scanOrganization(row)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}
	return o, nil
}

// IncrementBalance adds delta to the organization's balance server-side
// and returns the resulting balance. The read-modify-write never leaves
// the database, so concurrent increments cannot lose updates.
func (r *OrganizationRepository) IncrementBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE organizations SET balance = balance + $1 WHERE id = $2 RETURNING balance`,
		delta, id,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, fmt.Errorf("IncrementBalance: %w", domain.ErrNotFound)
		}
		return decimal.Decimal{}, fmt.Errorf("IncrementBalance: %w", err)
	}
	return balance, nil
}

func scanOrganization(s scanner) (*domain.Organization, error) {
	var o domain.Organization
	err := s.Scan(&o.ID, &o.INN, &o.Balance, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
