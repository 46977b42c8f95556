package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
)

func SeedOrganization(t *testing.T, db *sql.DB, inn string, balance decimal.Decimal) *domain.Organization {
	t.Helper()

	o := &domain.Organization{
		ID:        uuid.New(),
		INN:       inn,
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO organizations (id, inn, balance, created_at)
		 VALUES ($1, $2, $3, $4)`,
		o.ID, o.INN, o.Balance, o.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed organization %s: %v", inn, err)
	}
	return o
}

func GetOrganizationBalance(t *testing.T, db *sql.DB, inn string) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM organizations WHERE inn = $1`, inn).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance for inn %s: %v", inn, err)
	}
	return balance
}

func CountOrganizations(t *testing.T, db *sql.DB, inn string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM organizations WHERE inn = $1`, inn).Scan(&count)
	if err != nil {
		t.Fatalf("count organizations for inn %s: %v", inn, err)
	}
	return count
}

func CountPayments(t *testing.T, db *sql.DB, operationID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM payments WHERE operation_id = $1`, operationID).Scan(&count)
	if err != nil {
		t.Fatalf("count payments for operation %s: %v", operationID, err)
	}
	return count
}

func CountBalanceLogs(t *testing.T, db *sql.DB, inn string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM balance_logs bl
		 JOIN organizations o ON o.id = bl.organization_id
		 WHERE o.inn = $1`, inn).Scan(&count)
	if err != nil {
		t.Fatalf("count balance logs for inn %s: %v", inn, err)
	}
	return count
}
