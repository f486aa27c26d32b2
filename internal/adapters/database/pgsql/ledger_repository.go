package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hisabat/pos_backend/internal/core/domain"
	portsrepo "github.com/hisabat/pos_backend/internal/core/ports/repositories"
)

type PgxLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPgxLedgerRepository creates a new repository for customer ledger entries.
func NewPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{pool: pool}
}

// FindEntries retrieves the customer's entries within [from, to], both bounds
// inclusive and either may be nil. The (entry_date, entry_id) ordering is the
// contract the running-balance walk depends on: same-date entries must come
// back in the same order on every query and across page boundaries.
func (r *PgxLedgerRepository) FindEntries(ctx context.Context, customerID int64, from, to *time.Time, skip, take int) ([]domain.LedgerEntry, error) {
	baseQuery := `
		SELECT entry_id, customer_id, entry_date, debit, credit, description, reference_number, payment_method, created_at
		FROM customer_ledger_entries
	`
	filterClause := `WHERE customer_id = $1`
	args := []interface{}{customerID}

	if from != nil {
		args = append(args, *from)
		filterClause += ` AND entry_date >= $` + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		filterClause += ` AND entry_date <= $` + strconv.Itoa(len(args))
	}

	query := baseQuery + " " + filterClause + ` ORDER BY entry_date ASC, entry_id ASC`
	if take > 0 {
		args = append(args, take)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if skip > 0 {
		args = append(args, skip)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}
	query += ";"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries for customer %d: %w", customerID, err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.EntryID,
			&entry.CustomerID,
			&entry.Date,
			&entry.Debit,
			&entry.Credit,
			&entry.Description,
			&entry.ReferenceNumber,
			&entry.PaymentMethod,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row for customer %d: %w", customerID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows for customer %d: %w", customerID, err)
	}

	return entries, nil
}

// SumSignedBefore returns the signed sum (credit minus debit) of all entries
// strictly before the given date.
func (r *PgxLedgerRepository) SumSignedBefore(ctx context.Context, customerID int64, before time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(credit - debit), 0)
		FROM customer_ledger_entries
		WHERE customer_id = $1 AND entry_date < $2;
	`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, customerID, before).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger entries before %s for customer %d: %w", before.Format(time.DateOnly), customerID, err)
	}
	return sum, nil
}

// SumSignedByCustomer returns the signed sum of all entries per customer in a
// single aggregate query. Customers without entries are absent from the map.
func (r *PgxLedgerRepository) SumSignedByCustomer(ctx context.Context, customerIDs []int64) (map[int64]decimal.Decimal, error) {
	if len(customerIDs) == 0 {
		return map[int64]decimal.Decimal{}, nil
	}

	query := `
		SELECT customer_id, COALESCE(SUM(credit - debit), 0)
		FROM customer_ledger_entries
		WHERE customer_id = ANY($1)
		GROUP BY customer_id;
	`
	rows, err := r.pool.Query(ctx, query, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger sums: %w", err)
	}
	defer rows.Close()

	sums := make(map[int64]decimal.Decimal, len(customerIDs))
	for rows.Next() {
		var customerID int64
		var sum decimal.Decimal
		if err := rows.Scan(&customerID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan ledger sum row: %w", err)
		}
		sums[customerID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger sum rows: %w", err)
	}

	return sums, nil
}

// SaveEntries appends the given entries within a DB transaction; on failure no
// entry is persisted.
func (r *PgxLedgerRepository) SaveEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore rollback error
	}()

	batch := &pgx.Batch{}
	entryQuery := `
		INSERT INTO customer_ledger_entries (customer_id, entry_date, debit, credit, description, reference_number, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW());
	`
	for _, entry := range entries {
		batch.Queue(entryQuery,
			entry.CustomerID,
			entry.Date,
			entry.Debit,
			entry.Credit,
			entry.Description,
			entry.ReferenceNumber,
			entry.PaymentMethod,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute ledger entry batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger entry batch: %w", err)
	}

	return nil
}

// HasEntriesForCustomer reports whether any ledger entry references the customer.
func (r *PgxLedgerRepository) HasEntriesForCustomer(ctx context.Context, customerID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customer_ledger_entries WHERE customer_id = $1);`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, customerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ledger entries for customer %d: %w", customerID, err)
	}
	return exists, nil
}

// HasInvoicesForCustomer reports whether any invoice references the customer.
func (r *PgxLedgerRepository) HasInvoicesForCustomer(ctx context.Context, customerID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM invoices WHERE customer_id = $1);`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, customerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check invoices for customer %d: %w", customerID, err)
	}
	return exists, nil
}
