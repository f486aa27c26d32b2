package services

import (
	"context"
	"time"

	"github.com/hisabat/pos_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerSvcFacade is the customer ledger engine: stateless balance computation
// plus the posting operations that feed the ledger.
type LedgerSvcFacade interface {
	// EnsureDefaultCustomer returns the walk-in customer, creating or promoting
	// one if absent. Idempotent and safe to call concurrently.
	EnsureDefaultCustomer(ctx context.Context) (*domain.Customer, error)

	// GetDefaultCustomer returns the walk-in customer or apperrors.ErrNotFound.
	GetDefaultCustomer(ctx context.Context) (*domain.Customer, error)

	// GetCustomer returns a customer by id or apperrors.ErrNotFound.
	GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error)

	// IsDefaultCustomer reports whether the customer is the walk-in customer.
	IsDefaultCustomer(customer *domain.Customer) bool

	// IsDefaultCustomerID resolves the id and applies the same predicate.
	// Unknown ids report false rather than an error.
	IsDefaultCustomerID(ctx context.Context, customerID int64) (bool, error)

	// GetOpeningBalance is the customer's previousBalance plus the signed sum
	// of entries strictly before from (when given). Missing customers yield
	// apperrors.ErrNotFound.
	GetOpeningBalance(ctx context.Context, customerID int64, from *time.Time) (decimal.Decimal, error)

	// GetStatement returns all entries in range with running balances attached,
	// walking from the opening balance for from.
	GetStatement(ctx context.Context, customerID int64, from, to *time.Time) ([]domain.LedgerEntry, error)

	// GetStatementPage returns one page of entries without running balances;
	// the caller carries the balance forward from its previous page.
	GetStatementPage(ctx context.Context, customerID int64, from, to *time.Time, skip, take int) ([]domain.LedgerEntry, error)

	// GetCurrentBalances computes current balances for a set of customers in
	// one aggregate query.
	GetCurrentBalances(ctx context.Context, customerIDs []int64) ([]domain.CustomerBalance, error)

	// RecordInvoiceEntries posts up to two entries atomically: a debit of
	// totalAmount tagged "Invoice" and a credit of amountPaid tagged "Payment".
	// Silently skips posting for the default customer.
	RecordInvoiceEntries(ctx context.Context, customerID int64, invoiceNumber string, date time.Time, totalAmount, amountPaid decimal.Decimal, invoicePaymentMethod, paymentEntryMethod string) error

	// RecordCustomerPayment posts a single credit tagged "Customer Payment".
	// No-op when amount <= 0 or the customer is the default customer.
	RecordCustomerPayment(ctx context.Context, customerID int64, amount decimal.Decimal, paymentMethod, referenceNumber string, date time.Time) error

	// RecordCashMovement creates a drawer movement and returns its id, or nil
	// when amount <= 0. Independent of customer identity.
	RecordCashMovement(ctx context.Context, amount decimal.Decimal, cashName string, movementType domain.CashMovementType) (*int64, error)

	// HasCustomerTransactions reports whether any invoice or ledger entry
	// references the customer; deletion must degrade to archival when true.
	HasCustomerTransactions(ctx context.Context, customerID int64) (bool, error)

	// SearchCustomers lists non-archived customers matching the term, with
	// token pagination.
	SearchCustomers(ctx context.Context, term string, limit int, nextToken *string) ([]domain.CustomerLookup, *string, error)
}
