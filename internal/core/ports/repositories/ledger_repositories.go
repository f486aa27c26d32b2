package repositories

import (
	"context"
	"time"

	"github.com/hisabat/pos_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerRepositoryFacade is the entry store: durable, append-only keyed storage
// of ledger entries with ordered range queries and atomic appends.
type LedgerRepositoryFacade interface {
	// FindEntries returns the customer's entries within [from, to] (either
	// bound may be nil for open), ordered by (entry_date ASC, entry_id ASC).
	// The id tie-break is mandatory: same-date entries must come back in a
	// deterministic, stable order across repeated queries and across pages.
	FindEntries(ctx context.Context, customerID int64, from, to *time.Time, skip, take int) ([]domain.LedgerEntry, error)

	// SumSignedBefore returns the signed sum (credit − debit) of all entries
	// strictly before the given date.
	SumSignedBefore(ctx context.Context, customerID int64, before time.Time) (decimal.Decimal, error)

	// SumSignedByCustomer returns the signed sum of all entries per customer in
	// a single aggregate query. Customers without entries are absent from the map.
	SumSignedByCustomer(ctx context.Context, customerIDs []int64) (map[int64]decimal.Decimal, error)

	// SaveEntries appends the given entries in one commit; on failure no entry
	// is persisted.
	SaveEntries(ctx context.Context, entries []domain.LedgerEntry) error

	// HasEntriesForCustomer reports whether any ledger entry references the customer.
	HasEntriesForCustomer(ctx context.Context, customerID int64) (bool, error)

	// HasInvoicesForCustomer reports whether any invoice references the customer.
	HasInvoicesForCustomer(ctx context.Context, customerID int64) (bool, error)
}

// CashRepositoryFacade persists drawer cash movements.
type CashRepositoryFacade interface {
	// SaveCashMovement inserts a movement and returns the store-assigned id.
	SaveCashMovement(ctx context.Context, movement domain.CashMovement) (int64, error)
}
