package repositories

import (
	"context"

	"github.com/hisabat/pos_backend/internal/core/domain"
)

// CustomerRepositoryFacade defines persistence operations for customer records.
type CustomerRepositoryFacade interface {
	// FindCustomerByID returns apperrors.ErrNotFound when no such customer exists.
	FindCustomerByID(ctx context.Context, customerID int64) (*domain.Customer, error)

	// FindCustomersByIDs fetches a batch of customers in one query. Missing ids
	// are simply absent from the result.
	FindCustomersByIDs(ctx context.Context, customerIDs []int64) (map[int64]domain.Customer, error)

	// FindDefaultCustomer returns the non-archived customer flagged is_default,
	// or apperrors.ErrNotFound.
	FindDefaultCustomer(ctx context.Context) (*domain.Customer, error)

	// FindCustomerByName returns the first non-archived customer whose name
	// matches case-insensitively, or apperrors.ErrNotFound.
	FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error)

	// CreateCustomer inserts a customer and returns it with the store-assigned id.
	// Returns apperrors.ErrDuplicate when the default-customer uniqueness
	// constraint rejects the insert.
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)

	// MarkCustomerDefault sets is_default on an existing customer.
	MarkCustomerDefault(ctx context.Context, customerID int64) error

	// ListCustomers returns non-archived customers matching the search term
	// against name or phone, ordered by (is_default DESC, name ASC, customer_id
	// ASC), with token-based pagination. An empty term matches everyone.
	ListCustomers(ctx context.Context, searchTerm string, limit int, nextToken *string) ([]domain.CustomerLookup, *string, error)
}
