package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
	"github.com/bulat-nitaliev/payment-task/internal/logging"
)

type paymentRepo interface {
	GetByOperationID(ctx context.Context, operationID uuid.UUID) (*domain.Payment, error)
	ExistsOperation(ctx context.Context, tx *sql.Tx, operationID uuid.UUID) (bool, error)
	Create(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
}

type organizationRepo interface {
	GetOrCreate(ctx context.Context, tx *sql.Tx, org *domain.Organization) (*domain.Organization, error)
	IncrementBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type balanceLogRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.BalanceLog) error
}

type OutcomeStatus string

const (
	OutcomeApplied   OutcomeStatus = "applied"
	OutcomeDuplicate OutcomeStatus = "duplicate"
	OutcomeRejected  OutcomeStatus = "rejected"
)

// Outcome is the explicit result of ingesting one notification.
// Duplicate is an idempotent success: callers must report it to the
// webhook sender exactly like Applied so retries stop. Internal
// failures are returned as an error alongside a nil Outcome.
type Outcome struct {
	Status     OutcomeStatus
	NewBalance decimal.Decimal
	Fields     []domain.FieldError
}

type IngestionService struct {
	payments      paymentRepo
	organizations organizationRepo
	balanceLogs   balanceLogRepo
	db            *sql.DB
}

func NewIngestionService(
	payments paymentRepo,
	organizations organizationRepo,
	balanceLogs balanceLogRepo,
	db *sql.DB,
) *IngestionService {
	return &IngestionService{
		payments:      payments,
		organizations: organizations,
		balanceLogs:   balanceLogs,
		db:            db,
	}
}

// Ingest validates the notification and applies it to the ledger
// exactly once. Rejected notifications never touch the store; retries
// of an already-recorded operation are answered without side effects.
func (s *IngestionService) Ingest(ctx context.Context, n Notification) (*Outcome, error) {
	parsed, fields := n.parse()
	if len(fields) > 0 {
		return &Outcome{Status: OutcomeRejected, Fields: fields}, nil
	}

	// Cheap pre-check so webhook retries skip the transaction entirely.
	// The unique constraint on operation_id remains the final authority.
	_, err := s.payments.GetByOperationID(ctx, parsed.OperationID)
	if err == nil {
		return &Outcome{Status: OutcomeDuplicate}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Ingest: %w", err)
	}

	outcome, err := s.apply(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("Ingest: %w", err)
	}
	return outcome, nil
}

// apply runs the whole ledger update in one transaction: either the
// payment, the organization upsert, the balance increment and the
// balance log all persist, or none of them do.
func (s *IngestionService) apply(ctx context.Context, n *parsedNotification) (*Outcome, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("apply: begin tx: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.payments.ExistsOperation(ctx, tx, n.OperationID)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	if exists {
		return &Outcome{Status: OutcomeDuplicate}, nil
	}

	now := time.Now().UTC()

	org, err := s.organizations.GetOrCreate(ctx, tx, &domain.Organization{
		ID:        uuid.New(),
		INN:       n.PayerINN,
		Balance:   decimal.Zero,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	payment := &domain.Payment{
		ID:             uuid.New(),
		OperationID:    n.OperationID,
		Amount:         n.Amount,
		PayerINN:       n.PayerINN,
		DocumentNumber: n.DocumentNumber,
		DocumentDate:   n.DocumentDate,
		CreatedAt:      now,
	}
	if err := s.payments.Create(ctx, tx, payment); err != nil {
		// A concurrent delivery won the insert race between our re-check
		// and this statement. Their transaction applied the amount.
		if errors.Is(err, domain.ErrDuplicateOperation) {
			return &Outcome{Status: OutcomeDuplicate}, nil
		}
		return nil, fmt.Errorf("apply: %w", err)
	}

	newBalance, err := s.organizations.IncrementBalance(ctx, tx, org.ID, payment.Amount)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	if err := s.balanceLogs.Create(ctx, tx, &domain.BalanceLog{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		PaymentID:      payment.ID,
		Amount:         payment.Amount,
		BalanceAfter:   newBalance,
		CreatedAt:      now,
	}); err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("apply: commit: %w", err)
	}

	log.Info("payment applied",
		"operation_id", payment.OperationID,
		"amount", payment.Amount,
		"payer_inn", org.INN,
		"new_balance", newBalance,
	)

	return &Outcome{Status: OutcomeApplied, NewBalance: newBalance}, nil
}
