package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabat/pos_backend/internal/apperrors"
	"github.com/hisabat/pos_backend/internal/core/domain"
	portsrepo "github.com/hisabat/pos_backend/internal/core/ports/repositories"
	portssvc "github.com/hisabat/pos_backend/internal/core/ports/services"
	"github.com/hisabat/pos_backend/internal/middleware"
)

// ledgerService computes customer balances and posts ledger entries.
type ledgerService struct {
	customerRepo portsrepo.CustomerRepositoryFacade
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	cashRepo     portsrepo.CashRepositoryFacade
}

// NewLedgerService creates the ledger engine.
func NewLedgerService(customerRepo portsrepo.CustomerRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, cashRepo portsrepo.CashRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		customerRepo: customerRepo,
		ledgerRepo:   ledgerRepo,
		cashRepo:     cashRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// EnsureDefaultCustomer resolves the walk-in customer: an existing default, a
// customer carrying the sentinel name (promoted in place), or a freshly created
// one. The re-query-before-insert plus the store's partial unique index keep
// concurrent callers from creating duplicates.
func (s *ledgerService) EnsureDefaultCustomer(ctx context.Context) (*domain.Customer, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	customer, err := s.customerRepo.FindDefaultCustomer(ctx)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up default customer: %w", err)
	}

	customer, err = s.customerRepo.FindCustomerByName(ctx, domain.DefaultCustomerName)
	if err == nil {
		if err := s.customerRepo.MarkCustomerDefault(ctx, customer.CustomerID); err != nil {
			return nil, fmt.Errorf("failed to promote customer %d to default: %w", customer.CustomerID, err)
		}
		customer.IsDefault = true
		logger.Info("Promoted existing customer to default", slog.Int64("customer_id", customer.CustomerID))
		return customer, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up customer by sentinel name: %w", err)
	}

	created, err := s.customerRepo.CreateCustomer(ctx, domain.Customer{
		Name:            domain.DefaultCustomerName,
		PreviousBalance: decimal.Zero,
		IsDefault:       true,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the bootstrap race; the winner's row is authoritative.
			return s.customerRepo.FindDefaultCustomer(ctx)
		}
		return nil, fmt.Errorf("failed to create default customer: %w", err)
	}

	logger.Info("Default customer created", slog.Int64("customer_id", created.CustomerID))
	return created, nil
}

// GetDefaultCustomer returns the walk-in customer without creating one,
// falling back to the sentinel name when the flag was never set.
func (s *ledgerService) GetDefaultCustomer(ctx context.Context) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindDefaultCustomer(ctx)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.customerRepo.FindCustomerByName(ctx, domain.DefaultCustomerName)
}

// GetCustomer returns a customer by id.
func (s *ledgerService) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	return s.customerRepo.FindCustomerByID(ctx, customerID)
}

func (s *ledgerService) IsDefaultCustomer(customer *domain.Customer) bool {
	return customer.IsDefaultCustomer()
}

// IsDefaultCustomerID resolves the id and applies the default-customer
// predicate. An unknown id is simply not the default customer.
func (s *ledgerService) IsDefaultCustomerID(ctx context.Context, customerID int64) (bool, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return customer.IsDefaultCustomer(), nil
}

// GetOpeningBalance is previousBalance plus the signed sum of all entries
// strictly before from. With a nil from it is previousBalance alone.
func (s *ledgerService) GetOpeningBalance(ctx context.Context, customerID int64, from *time.Time) (decimal.Decimal, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := customer.PreviousBalance
	if from != nil {
		priorNet, err := s.ledgerRepo.SumSignedBefore(ctx, customerID, *from)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to sum entries before %s for customer %d: %w", from.Format(time.DateOnly), customerID, err)
		}
		balance = balance.Add(priorNet)
	}

	return balance, nil
}

// GetStatement returns the full statement for the range with running balances
// attached, walking forward from the opening balance.
func (s *ledgerService) GetStatement(ctx context.Context, customerID int64, from, to *time.Time) ([]domain.LedgerEntry, error) {
	openingBalance, err := s.GetOpeningBalance(ctx, customerID, from)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.FindEntries(ctx, customerID, from, to, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load statement entries for customer %d: %w", customerID, err)
	}

	runningBalance := openingBalance
	for i := range entries {
		runningBalance = runningBalance.Add(entries[i].SignedAmount())
		entries[i].RunningBalance = runningBalance
	}

	return entries, nil
}

// GetStatementPage returns one page of raw entries. Running balance is left to
// the caller, which carries it forward from its previous page instead of
// recomputing from the start of history.
func (s *ledgerService) GetStatementPage(ctx context.Context, customerID int64, from, to *time.Time, skip, take int) ([]domain.LedgerEntry, error) {
	return s.ledgerRepo.FindEntries(ctx, customerID, from, to, skip, take)
}

// GetCurrentBalances computes previousBalance plus the signed sum of all
// entries for each customer, using one aggregate query for the sums. Unknown
// ids are omitted from the result.
func (s *ledgerService) GetCurrentBalances(ctx context.Context, customerIDs []int64) ([]domain.CustomerBalance, error) {
	if len(customerIDs) == 0 {
		return []domain.CustomerBalance{}, nil
	}

	customers, err := s.customerRepo.FindCustomersByIDs(ctx, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customers for balance lookup: %w", err)
	}

	sums, err := s.ledgerRepo.SumSignedByCustomer(ctx, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate entry sums: %w", err)
	}

	balances := make([]domain.CustomerBalance, 0, len(customers))
	for _, id := range customerIDs {
		customer, ok := customers[id]
		if !ok {
			continue
		}
		balance := customer.PreviousBalance
		if sum, ok := sums[id]; ok {
			balance = balance.Add(sum)
		}
		balances = append(balances, domain.CustomerBalance{CustomerID: id, Balance: balance})
	}

	return balances, nil
}

// RecordInvoiceEntries posts the debit/credit pair for a posted invoice in one
// commit. The walk-in customer has no persistent ledger, so postings against it
// are skipped silently.
func (s *ledgerService) RecordInvoiceEntries(ctx context.Context, customerID int64, invoiceNumber string, date time.Time, totalAmount, amountPaid decimal.Decimal, invoicePaymentMethod, paymentEntryMethod string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	isDefault, err := s.IsDefaultCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	if isDefault {
		logger.Debug("Skipping invoice ledger entries for default customer", slog.Int64("customer_id", customerID))
		return nil
	}

	entries := make([]domain.LedgerEntry, 0, 2)
	if totalAmount.GreaterThan(decimal.Zero) {
		entries = append(entries, domain.LedgerEntry{
			CustomerID:      customerID,
			Date:            date,
			Debit:           totalAmount,
			Credit:          decimal.Zero,
			Description:     domain.EntryDescriptionInvoice,
			ReferenceNumber: invoiceNumber,
			PaymentMethod:   invoicePaymentMethod,
		})
	}

	if amountPaid.GreaterThan(decimal.Zero) {
		creditMethod := paymentEntryMethod
		if strings.TrimSpace(creditMethod) == "" {
			creditMethod = invoicePaymentMethod
		}
		entries = append(entries, domain.LedgerEntry{
			CustomerID:      customerID,
			Date:            date,
			Debit:           decimal.Zero,
			Credit:          amountPaid,
			Description:     domain.EntryDescriptionPayment,
			ReferenceNumber: invoiceNumber,
			PaymentMethod:   creditMethod,
		})
	}

	if len(entries) == 0 {
		return nil
	}

	if err := s.ledgerRepo.SaveEntries(ctx, entries); err != nil {
		return fmt.Errorf("failed to save invoice entries for invoice %s: %w", invoiceNumber, err)
	}

	logger.Info("Invoice ledger entries recorded",
		slog.Int64("customer_id", customerID),
		slog.String("invoice_number", invoiceNumber),
		slog.Int("entry_count", len(entries)),
	)
	return nil
}

// RecordCustomerPayment posts a single credit entry. Non-positive amounts and
// the default customer short-circuit to a no-op.
func (s *ledgerService) RecordCustomerPayment(ctx context.Context, customerID int64, amount decimal.Decimal, paymentMethod, referenceNumber string, date time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	isDefault, err := s.IsDefaultCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	if isDefault {
		return nil
	}

	entry := domain.LedgerEntry{
		CustomerID:      customerID,
		Date:            date,
		Debit:           decimal.Zero,
		Credit:          amount,
		Description:     domain.EntryDescriptionCustomerPayment,
		ReferenceNumber: referenceNumber,
		PaymentMethod:   paymentMethod,
	}

	if err := s.ledgerRepo.SaveEntries(ctx, []domain.LedgerEntry{entry}); err != nil {
		return fmt.Errorf("failed to save customer payment for customer %d: %w", customerID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Customer payment recorded",
		slog.Int64("customer_id", customerID),
		slog.String("amount", amount.String()),
	)
	return nil
}

// RecordCashMovement creates a drawer movement. Callers must check the
// returned id: nil means nothing was recorded.
func (s *ledgerService) RecordCashMovement(ctx context.Context, amount decimal.Decimal, cashName string, movementType domain.CashMovementType) (*int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	if strings.TrimSpace(cashName) == "" {
		cashName = domain.DefaultCashName
	}

	movementID, err := s.cashRepo.SaveCashMovement(ctx, domain.CashMovement{
		CashName: cashName,
		Amount:   amount,
		Type:     movementType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save cash movement: %w", err)
	}

	return &movementID, nil
}

// HasCustomerTransactions reports whether the customer has any invoice or
// ledger history.
func (s *ledgerService) HasCustomerTransactions(ctx context.Context, customerID int64) (bool, error) {
	hasInvoices, err := s.ledgerRepo.HasInvoicesForCustomer(ctx, customerID)
	if err != nil {
		return false, err
	}
	if hasInvoices {
		return true, nil
	}
	return s.ledgerRepo.HasEntriesForCustomer(ctx, customerID)
}

// SearchCustomers lists customers for the picker.
func (s *ledgerService) SearchCustomers(ctx context.Context, term string, limit int, nextToken *string) ([]domain.CustomerLookup, *string, error) {
	return s.customerRepo.ListCustomers(ctx, strings.TrimSpace(term), limit, nextToken)
}
