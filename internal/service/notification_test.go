package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validNotification() Notification {
	return Notification{
		OperationID:    uuid.NewString(),
		Amount:         "145000",
		PayerINN:       "1234567890",
		DocumentNumber: "PAY-328",
		DocumentDate:   "2024-04-27T21:00:00Z",
	}
}

func TestNotificationParse_Valid(t *testing.T) {
	n := validNotification()

	parsed, fields := n.parse()
	require.Empty(t, fields)
	require.NotNil(t, parsed)

	assert.Equal(t, n.OperationID, parsed.OperationID.String())
	assert.Equal(t, "145000", parsed.Amount.String())
	assert.Equal(t, "1234567890", parsed.PayerINN)
	assert.Equal(t, "PAY-328", parsed.DocumentNumber)
	assert.Equal(t, 2024, parsed.DocumentDate.Year())
}

func TestNotificationParse_TwelveDigitINN(t *testing.T) {
	n := validNotification()
	n.PayerINN = "123456789012"

	_, fields := n.parse()
	assert.Empty(t, fields)
}

func TestNotificationParse_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(n *Notification)
		wantField string
	}{
		{
			name:      "malformed operation id",
			mutate:    func(n *Notification) { n.OperationID = "not-a-uuid" },
			wantField: "operation_id",
		},
		{
			name:      "missing operation id",
			mutate:    func(n *Notification) { n.OperationID = "" },
			wantField: "operation_id",
		},
		{
			name:      "zero amount",
			mutate:    func(n *Notification) { n.Amount = "0" },
			wantField: "amount",
		},
		{
			name:      "negative amount",
			mutate:    func(n *Notification) { n.Amount = "-150.25" },
			wantField: "amount",
		},
		{
			name:      "amount with three decimal places",
			mutate:    func(n *Notification) { n.Amount = "10.505" },
			wantField: "amount",
		},
		{
			name:      "amount exceeding 15 digits",
			mutate:    func(n *Notification) { n.Amount = "10000000000000.00" },
			wantField: "amount",
		},
		{
			name:      "non-numeric amount",
			mutate:    func(n *Notification) { n.Amount = "abc" },
			wantField: "amount",
		},
		{
			name:      "inn too short",
			mutate:    func(n *Notification) { n.PayerINN = "12345" },
			wantField: "payer_inn",
		},
		{
			name:      "inn with eleven digits",
			mutate:    func(n *Notification) { n.PayerINN = "12345678901" },
			wantField: "payer_inn",
		},
		{
			name:      "inn with letters",
			mutate:    func(n *Notification) { n.PayerINN = "12345678AB" },
			wantField: "payer_inn",
		},
		{
			name:      "empty document number",
			mutate:    func(n *Notification) { n.DocumentNumber = "" },
			wantField: "document_number",
		},
		{
			name:      "document number too long",
			mutate:    func(n *Notification) { n.DocumentNumber = strings.Repeat("x", 256) },
			wantField: "document_number",
		},
		{
			name:      "malformed document date",
			mutate:    func(n *Notification) { n.DocumentDate = "27-04-2024" },
			wantField: "document_date",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := validNotification()
			tc.mutate(&n)

			parsed, fields := n.parse()
			assert.Nil(t, parsed)
			require.Len(t, fields, 1)
			assert.Equal(t, tc.wantField, fields[0].Field)
		})
	}
}

func TestNotificationParse_CollectsAllErrors(t *testing.T) {
	n := Notification{}

	parsed, fields := n.parse()
	assert.Nil(t, parsed)
	assert.Len(t, fields, 5)
}

func TestValidateINN(t *testing.T) {
	assert.Empty(t, ValidateINN("1234567890"))
	assert.Empty(t, ValidateINN("123456789012"))
	assert.NotEmpty(t, ValidateINN(""))
	assert.NotEmpty(t, ValidateINN("12345"))
	assert.NotEmpty(t, ValidateINN("123456789a"))
}

func TestNotificationParse_MaxAmountBoundary(t *testing.T) {
	n := validNotification()
	n.Amount = "9999999999999.99"

	_, fields := n.parse()
	assert.Empty(t, fields)
}
