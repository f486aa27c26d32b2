package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hisabat/pos_backend/internal/apperrors"
	"github.com/hisabat/pos_backend/internal/core/domain"
	portsrepo "github.com/hisabat/pos_backend/internal/core/ports/repositories"
	"github.com/hisabat/pos_backend/internal/utils/pagination"
)

type PgxCustomerRepository struct {
	pool *pgxpool.Pool
}

// NewPgxCustomerRepository creates a new repository for customer data.
func NewPgxCustomerRepository(pool *pgxpool.Pool) portsrepo.CustomerRepositoryFacade {
	return &PgxCustomerRepository{pool: pool}
}

const customerColumns = `customer_id, name, phone, previous_balance, is_default, is_archived, created_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var customer domain.Customer
	err := row.Scan(
		&customer.CustomerID,
		&customer.Name,
		&customer.Phone,
		&customer.PreviousBalance,
		&customer.IsDefault,
		&customer.IsArchived,
		&customer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindCustomerByID retrieves a customer by its ID.
func (r *PgxCustomerRepository) FindCustomerByID(ctx context.Context, customerID int64) (*domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE customer_id = $1;
	`
	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer by ID %d: %w", customerID, err)
	}
	return customer, nil
}

// FindCustomersByIDs retrieves a batch of customers in one query. IDs without a
// matching row are simply absent from the result map.
func (r *PgxCustomerRepository) FindCustomersByIDs(ctx context.Context, customerIDs []int64) (map[int64]domain.Customer, error) {
	if len(customerIDs) == 0 {
		return map[int64]domain.Customer{}, nil
	}

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE customer_id = ANY($1);
	`
	rows, err := r.pool.Query(ctx, query, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers by IDs: %w", err)
	}
	defer rows.Close()

	customers := make(map[int64]domain.Customer, len(customerIDs))
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers[customer.CustomerID] = *customer
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", err)
	}

	return customers, nil
}

// FindDefaultCustomer retrieves the non-archived customer flagged as default.
func (r *PgxCustomerRepository) FindDefaultCustomer(ctx context.Context) (*domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE is_default AND NOT is_archived
		ORDER BY customer_id
		LIMIT 1;
	`
	customer, err := scanCustomer(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find default customer: %w", err)
	}
	return customer, nil
}

// FindCustomerByName retrieves the first non-archived customer whose name
// matches case-insensitively.
func (r *PgxCustomerRepository) FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE LOWER(name) = LOWER($1) AND NOT is_archived
		ORDER BY customer_id
		LIMIT 1;
	`
	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer by name %s: %w", name, err)
	}
	return customer, nil
}

// CreateCustomer inserts a customer and returns it with the store-assigned id.
// The partial unique index on default customers maps to apperrors.ErrDuplicate.
func (r *PgxCustomerRepository) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	query := `
		INSERT INTO customers (name, phone, previous_balance, is_default, is_archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + customerColumns + `;
	`
	created, err := scanCustomer(r.pool.QueryRow(ctx, query,
		customer.Name,
		customer.Phone,
		customer.PreviousBalance,
		customer.IsDefault,
		customer.IsArchived,
		customer.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return nil, apperrors.ErrDuplicate
			}
		}
		return nil, fmt.Errorf("failed to create customer %s: %w", customer.Name, err)
	}
	return created, nil
}

// MarkCustomerDefault sets is_default on an existing customer.
func (r *PgxCustomerRepository) MarkCustomerDefault(ctx context.Context, customerID int64) error {
	query := `
		UPDATE customers
		SET is_default = TRUE
		WHERE customer_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, customerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to mark customer %d default: %w", customerID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListCustomers retrieves a paginated list of non-archived customers matching
// the search term against name or phone, using token-based pagination.
// Ordering is stable: is_default DESC, name ASC, customer_id ASC, so the
// walk-in customer always sorts first.
func (r *PgxCustomerRepository) ListCustomers(ctx context.Context, searchTerm string, limit int, nextToken *string) ([]domain.CustomerLookup, *string, error) {
	if limit <= 0 {
		limit = 100
	}
	// Fetch one extra row to determine whether there is a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT customer_id, name, phone, is_default
		FROM customers
	`
	filterClause := `WHERE NOT is_archived`
	orderByClause := `ORDER BY is_default DESC, name ASC, customer_id ASC`

	args := []interface{}{}
	if searchTerm != "" {
		args = append(args, "%"+searchTerm+"%")
		filterClause += ` AND (name ILIKE $1 OR phone ILIKE $1)`
	}

	if nextToken != nil && *nextToken != "" {
		lastDefault, lastName, lastID, decodeErr := pagination.DecodeCustomerToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		// Resume strictly after the cursor row under the list ordering.
		// Booleans compare false < true in Postgres, so "later" in the
		// is_default DESC ordering means a smaller is_default.
		p := len(args)
		cursorClause := fmt.Sprintf(
			`AND (is_default < $%d OR (is_default = $%d AND (name > $%d OR (name = $%d AND customer_id > $%d))))`,
			p+1, p+1, p+2, p+2, p+3,
		)
		args = append(args, lastDefault, lastName, lastID)
		filterClause += " " + cursorClause
	}

	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	lookups := make([]domain.CustomerLookup, 0, fetchLimit)
	for rows.Next() {
		var lookup domain.CustomerLookup
		if err := rows.Scan(&lookup.CustomerID, &lookup.Name, &lookup.Phone, &lookup.IsDefault); err != nil {
			return nil, nil, fmt.Errorf("failed to scan customer lookup row: %w", err)
		}
		lookups = append(lookups, lookup)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating customer lookup rows: %w", err)
	}

	var nextTokenVal *string
	if len(lookups) > limit {
		last := lookups[limit-1]
		token := pagination.EncodeCustomerToken(last.IsDefault, last.Name, last.CustomerID)
		nextTokenVal = &token
		lookups = lookups[:limit]
	}

	return lookups, nextTokenVal, nil
}
