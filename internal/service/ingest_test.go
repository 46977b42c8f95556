package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulat-nitaliev/payment-task/internal/repository"
	"github.com/bulat-nitaliev/payment-task/internal/testutil"
)

func setupIngestionService(db *sql.DB) *IngestionService {
	return NewIngestionService(
		repository.NewPaymentRepository(db),
		repository.NewOrganizationRepository(db),
		repository.NewBalanceLogRepository(db),
		db,
	)
}

func TestIngest_NewOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	n := validNotification()
	n.Amount = "145000"

	outcome, err := svc.Ingest(ctx, n)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome.Status)
	assert.True(t, outcome.NewBalance.Equal(decimal.NewFromInt(145000)))

	assert.Equal(t, 1, testutil.CountOrganizations(t, db, n.PayerINN))
	assert.Equal(t, 1, testutil.CountPayments(t, db, uuid.MustParse(n.OperationID)))
	assert.Equal(t, 1, testutil.CountBalanceLogs(t, db, n.PayerINN))
	assert.True(t, testutil.GetOrganizationBalance(t, db, n.PayerINN).Equal(decimal.NewFromInt(145000)))
}

func TestIngest_SequentialDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	n := validNotification()

	first, err := svc.Ingest(ctx, n)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, first.Status)

	second, err := svc.Ingest(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second.Status)

	assert.Equal(t, 1, testutil.CountPayments(t, db, uuid.MustParse(n.OperationID)))
	assert.Equal(t, 1, testutil.CountBalanceLogs(t, db, n.PayerINN))
	assert.True(t, testutil.GetOrganizationBalance(t, db, n.PayerINN).Equal(decimal.NewFromInt(145000)))
}

func TestIngest_ConcurrentDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	n := validNotification()

	const attempts = 8
	outcomes := make([]*Outcome, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], errs[i] = svc.Ingest(ctx, n)
		}()
	}
	wg.Wait()

	applied := 0
	for i := range attempts {
		require.NoError(t, errs[i])
		switch outcomes[i].Status {
		case OutcomeApplied:
			applied++
		case OutcomeDuplicate:
		default:
			t.Fatalf("unexpected outcome %q", outcomes[i].Status)
		}
	}
	assert.Equal(t, 1, applied)

	assert.Equal(t, 1, testutil.CountPayments(t, db, uuid.MustParse(n.OperationID)))
	assert.Equal(t, 1, testutil.CountBalanceLogs(t, db, n.PayerINN))
	assert.Equal(t, 1, testutil.CountOrganizations(t, db, n.PayerINN))
	assert.True(t, testutil.GetOrganizationBalance(t, db, n.PayerINN).Equal(decimal.NewFromInt(145000)))
}

func TestIngest_SecondPaymentSameOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	first := validNotification()
	outcome, err := svc.Ingest(ctx, first)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome.Status)

	second := validNotification()
	second.Amount = "5000"

	outcome, err = svc.Ingest(ctx, second)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome.Status)
	assert.True(t, outcome.NewBalance.Equal(decimal.NewFromInt(150000)))

	assert.Equal(t, 1, testutil.CountOrganizations(t, db, second.PayerINN))
	assert.Equal(t, 2, testutil.CountBalanceLogs(t, db, second.PayerINN))
	assert.True(t, testutil.GetOrganizationBalance(t, db, second.PayerINN).Equal(decimal.NewFromInt(150000)))
}

func TestIngest_ConcurrentPaymentsSameOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	const payments = 10
	inn := "1234567890"

	var wg sync.WaitGroup
	errs := make([]error, payments)
	for i := range payments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := validNotification()
			n.PayerINN = inn
			n.Amount = decimal.NewFromInt(int64((i + 1) * 100)).String()
			_, errs[i] = svc.Ingest(ctx, n)
		}()
	}
	wg.Wait()

	for i := range payments {
		require.NoError(t, errs[i])
	}

	// 100 + 200 + ... + 1000
	want := decimal.NewFromInt(5500)
	assert.Equal(t, 1, testutil.CountOrganizations(t, db, inn))
	assert.Equal(t, payments, testutil.CountBalanceLogs(t, db, inn))
	assert.True(t, testutil.GetOrganizationBalance(t, db, inn).Equal(want))

	assertAuditTrailConsistent(t, db, inn)
}

// Amounts are strictly positive, so balance_after values along any
// serial order of the applied increments are strictly increasing.
// Sorting the logs by balance_after therefore recovers that order, and
// each entry's balance_after must equal the running sum of amounts.
func assertAuditTrailConsistent(t *testing.T, db *sql.DB, inn string) {
	t.Helper()
	ctx := context.Background()

	orgs := repository.NewOrganizationRepository(db)
	logs := repository.NewBalanceLogRepository(db)

	org, err := orgs.GetByINN(ctx, inn)
	require.NoError(t, err)

	entries, err := logs.GetByOrganizationID(ctx, org.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for i := range len(entries) - 1 {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].BalanceAfter.GreaterThan(entries[j].BalanceAfter) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}

	running := decimal.Zero
	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		running = running.Add(e.Amount)
		assert.True(t, e.BalanceAfter.Equal(running),
			"balance_after %s, want running sum %s", e.BalanceAfter, running)
		assert.False(t, seen[e.PaymentID], "payment %s logged twice", e.PaymentID)
		seen[e.PaymentID] = true
	}
	assert.True(t, org.Balance.Equal(running))
}

func TestIngest_AuditTrailPerPayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	amounts := []string{"100.50", "249.50", "1000"}
	inn := "123456789012"

	for _, amount := range amounts {
		n := validNotification()
		n.PayerINN = inn
		n.Amount = amount
		outcome, err := svc.Ingest(ctx, n)
		require.NoError(t, err)
		require.Equal(t, OutcomeApplied, outcome.Status)
	}

	assertAuditTrailConsistent(t, db, inn)
	assert.True(t, testutil.GetOrganizationBalance(t, db, inn).Equal(decimal.RequireFromString("1350.00")))
}

func TestIngest_RejectedHasNoSideEffects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	n := validNotification()
	n.Amount = "-5"

	outcome, err := svc.Ingest(ctx, n)
	require.NoError(t, err)
	require.Equal(t, OutcomeRejected, outcome.Status)
	require.NotEmpty(t, outcome.Fields)

	assert.Equal(t, 0, testutil.CountOrganizations(t, db, n.PayerINN))

	var payments int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&payments))
	assert.Zero(t, payments)
}

func TestIngest_DistinctOperationsDistinctOrganizations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := setupIngestionService(db)

	first := validNotification()
	first.PayerINN = "1111111111"
	second := validNotification()
	second.PayerINN = "2222222222"

	for _, n := range []Notification{first, second} {
		outcome, err := svc.Ingest(ctx, n)
		require.NoError(t, err)
		require.Equal(t, OutcomeApplied, outcome.Status)
	}

	assert.True(t, testutil.GetOrganizationBalance(t, db, "1111111111").Equal(decimal.NewFromInt(145000)))
	assert.True(t, testutil.GetOrganizationBalance(t, db, "2222222222").Equal(decimal.NewFromInt(145000)))
}
