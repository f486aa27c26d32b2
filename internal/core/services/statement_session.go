package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabat/pos_backend/internal/apperrors"
	"github.com/hisabat/pos_backend/internal/core/domain"
	portssvc "github.com/hisabat/pos_backend/internal/core/ports/services"
	"github.com/hisabat/pos_backend/internal/middleware"
	"github.com/hisabat/pos_backend/internal/utils/async"
)

var (
	ErrNoCustomerSelected     = fmt.Errorf("%w: no customer selected", apperrors.ErrInvalidOperation)
	ErrDefaultCustomerPayment = fmt.Errorf("%w: cannot record a payment for the default customer", apperrors.ErrInvalidOperation)
	ErrNonPositiveAmount      = fmt.Errorf("%w: payment amount must be positive", apperrors.ErrInvalidOperation)
	ErrPaymentMethodRequired  = fmt.Errorf("%w: payment method is required", apperrors.ErrInvalidOperation)

	// ErrCashMovementFailed means the payment entry committed but the follow-up
	// drawer movement did not. The ledger is correct; the drawer needs a manual
	// correction, so callers must surface this distinctly.
	ErrCashMovementFailed = errors.New("payment recorded but cash movement failed")
)

const loadErrorMessage = "failed to load the customer statement"

// StatementSessionConfig tunes one session instance.
type StatementSessionConfig struct {
	PageSize          int           // ledger entries per page
	CustomerPageSize  int           // customer lookup list cap
	SearchDebounce    time.Duration // delay before a search keystroke executes
	CashPaymentMethod string        // payment method that triggers a drawer movement
}

// StatementSnapshot is the stable read-only shape handed to the UI and to
// exporters: the materialized page list plus the balances derived from it.
type StatementSnapshot struct {
	Customer       *domain.CustomerLookup  `json:"customer"`
	Customers      []domain.CustomerLookup `json:"customers"`
	DateFrom       *time.Time              `json:"dateFrom"`
	DateTo         *time.Time              `json:"dateTo"`
	Entries        []domain.LedgerEntry    `json:"entries"`
	OpeningBalance decimal.Decimal         `json:"openingBalance"`
	CurrentBalance decimal.Decimal         `json:"currentBalance"`
	TotalDebit     decimal.Decimal         `json:"totalDebit"`
	TotalCredit    decimal.Decimal         `json:"totalCredit"`
	HasMore        bool                    `json:"hasMore"`
	IsBusy         bool                    `json:"isBusy"`
	LastError      string                  `json:"lastError"`
}

// StatementSession gives one UI surface a live, consistent, incrementally
// loaded view of a customer's statement while the user switches customers,
// search text and date filters arbitrarily fast.
//
// Exactly one page load may touch the materialized state at a time (the gate);
// a newer request cancels the in-flight one before awaiting the gate, and
// every load re-checks the selected customer after fetching, so the newest
// request always wins and stale results are never applied.
type StatementSession struct {
	ledgerSvc portssvc.LedgerSvcFacade
	cfg       StatementSessionConfig

	gate            *async.Gate
	searchDebouncer *async.Debouncer

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu          sync.Mutex
	loadCancel  context.CancelFunc // cancellation source of the in-flight load
	generation  uint64             // bumped per load; lets a superseded load skip its cleanup
	initialized bool

	selectedCustomer *domain.CustomerLookup
	customers        []domain.CustomerLookup
	dateFrom         *time.Time
	dateTo           *time.Time
	openingBalance   decimal.Decimal
	nextPage         int
	entries          []domain.LedgerEntry
	currentBalance   decimal.Decimal
	hasMore          bool
	busy             bool
	lastError        string
}

// NewStatementSession creates an idle session. Call Initialize before use and
// Close when the owning UI surface goes away.
func NewStatementSession(ledgerSvc portssvc.LedgerSvcFacade, cfg StatementSessionConfig) *StatementSession {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	if cfg.CustomerPageSize <= 0 {
		cfg.CustomerPageSize = 100
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = 300 * time.Millisecond
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &StatementSession{
		ledgerSvc:       ledgerSvc,
		cfg:             cfg,
		gate:            async.NewGate(),
		searchDebouncer: async.NewDebouncer(),
		baseCtx:         baseCtx,
		baseCancel:      baseCancel,
		nextPage:        1,
	}
}

// Initialize bootstraps the default customer, loads the initial customer list
// and selects the first entry. Safe to call more than once.
func (s *StatementSession) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	return s.loadCustomers(ctx, "", false)
}

// SelectCustomer switches the session to the given customer, clearing the
// materialized statement and loading the first page. Legal in any state: an
// in-flight load is cancelled and superseded.
func (s *StatementSession) SelectCustomer(ctx context.Context, customerID int64) error {
	customer, err := s.ledgerSvc.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	lookup := domain.CustomerLookup{
		CustomerID: customer.CustomerID,
		Name:       customer.Name,
		Phone:      customer.Phone,
		IsDefault:  customer.IsDefault,
	}

	s.mu.Lock()
	s.selectedCustomer = &lookup
	s.clearStatementLocked()
	initialized := s.initialized
	s.mu.Unlock()

	if !initialized {
		return nil
	}
	return s.loadPage(ctx, true)
}

// SetDateRange updates the date filters and performs a reset load.
func (s *StatementSession) SetDateRange(ctx context.Context, from, to *time.Time) error {
	s.mu.Lock()
	s.dateFrom = from
	s.dateTo = to
	hasCustomer := s.selectedCustomer != nil
	s.mu.Unlock()

	if !hasCustomer {
		return nil
	}
	return s.loadPage(ctx, true)
}

// ClearFilters drops both date bounds and performs a reset load.
func (s *StatementSession) ClearFilters(ctx context.Context) error {
	return s.SetDateRange(ctx, nil, nil)
}

// Refresh recomputes the opening balance and reloads the first page.
func (s *StatementSession) Refresh(ctx context.Context) error {
	s.mu.Lock()
	hasCustomer := s.selectedCustomer != nil
	s.mu.Unlock()

	if !hasCustomer {
		return ErrNoCustomerSelected
	}
	return s.loadPage(ctx, true)
}

// LoadNextPage appends the next page, continuing the running balance from the
// last materialized entry. A no-op unless hasMore and not busy.
func (s *StatementSession) LoadNextPage(ctx context.Context) error {
	s.mu.Lock()
	ok := s.selectedCustomer != nil && s.hasMore && !s.busy
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return s.loadPage(ctx, false)
}

// RecordPayment validates and posts a customer payment, mirrors cash payments
// into the drawer, then reloads the statement to reflect the new balance.
func (s *StatementSession) RecordPayment(ctx context.Context, amount decimal.Decimal, paymentMethod, referenceNumber string) error {
	s.mu.Lock()
	customer := s.selectedCustomer
	s.mu.Unlock()

	if customer == nil {
		return ErrNoCustomerSelected
	}
	if customer.IsDefault {
		return ErrDefaultCustomerPayment
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}
	if paymentMethod == "" {
		return ErrPaymentMethodRequired
	}

	if err := s.ledgerSvc.RecordCustomerPayment(ctx, customer.CustomerID, amount, paymentMethod, referenceNumber, time.Now()); err != nil {
		s.setLastError("failed to record the payment")
		return err
	}

	var cashErr error
	if paymentMethod == s.cfg.CashPaymentMethod && s.cfg.CashPaymentMethod != "" {
		// The payment entry is already committed; a drawer failure here must
		// not pretend the payment never happened.
		if _, err := s.ledgerSvc.RecordCashMovement(ctx, amount, domain.EntryDescriptionCustomerPayment, domain.CashIncome); err != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Cash movement failed after committed payment",
				slog.Int64("customer_id", customer.CustomerID),
				slog.String("amount", amount.String()),
				slog.String("error", err.Error()),
			)
			cashErr = fmt.Errorf("%w: %v", ErrCashMovementFailed, err)
		}
	}

	if err := s.loadPage(ctx, true); err != nil && cashErr == nil {
		return err
	}
	return cashErr
}

// SearchCustomers debounces free-text customer search: every call restarts the
// delay, and only the last pending search executes. A lookup that is already
// in flight when a newer keystroke arrives is cancelled and its result
// discarded even if it races to completion.
func (s *StatementSession) SearchCustomers(text string) {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized {
		return
	}

	s.searchDebouncer.Debounce(s.baseCtx, s.cfg.SearchDebounce, func(ctx context.Context) {
		if err := s.loadCustomers(ctx, text, true); err != nil && !errors.Is(err, context.Canceled) {
			middleware.GetLoggerFromCtx(ctx).Warn("Customer search failed", slog.String("error", err.Error()))
		}
	})
}

// Cancel aborts the in-flight load and any pending search without tearing the
// session down.
func (s *StatementSession) Cancel() {
	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
	}
	s.mu.Unlock()
	s.searchDebouncer.Cancel()
}

// Close cancels all pending work and invalidates the session.
func (s *StatementSession) Close() {
	s.Cancel()
	s.baseCancel()
}

// Snapshot returns a consistent copy of the session state.
func (s *StatementSession) Snapshot() StatementSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.LedgerEntry, len(s.entries))
	copy(entries, s.entries)
	customers := make([]domain.CustomerLookup, len(s.customers))
	copy(customers, s.customers)

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, e := range entries {
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)
	}

	var customer *domain.CustomerLookup
	if s.selectedCustomer != nil {
		c := *s.selectedCustomer
		customer = &c
	}

	return StatementSnapshot{
		Customer:       customer,
		Customers:      customers,
		DateFrom:       s.dateFrom,
		DateTo:         s.dateTo,
		Entries:        entries,
		OpeningBalance: s.openingBalance,
		CurrentBalance: s.currentBalance,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		HasMore:        s.hasMore,
		IsBusy:         s.busy,
		LastError:      s.lastError,
	}
}

// loadPage is the shared reset/append algorithm. It cancels the in-flight
// load, awaits the gate, fetches pageSize+1 rows to probe for more, and
// applies the page only if the session still points at the captured customer.
func (s *StatementSession) loadPage(ctx context.Context, reset bool) error {
	s.mu.Lock()
	if s.selectedCustomer == nil {
		s.mu.Unlock()
		return ErrNoCustomerSelected
	}

	// Newest request wins: cancel the in-flight load before awaiting the gate.
	if s.loadCancel != nil {
		s.loadCancel()
	}
	loadCtx, cancel := context.WithCancel(middleware.ContextWithLogger(s.baseCtx, middleware.GetLoggerFromCtx(ctx)))
	s.loadCancel = cancel
	s.generation++
	gen := s.generation

	customerID := s.selectedCustomer.CustomerID
	from, to := s.dateFrom, s.dateTo
	page := s.nextPage
	if reset {
		page = 1
	}
	s.busy = true
	s.lastError = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.generation == gen {
			s.busy = false
		}
		s.mu.Unlock()
	}()

	if err := s.gate.Acquire(loadCtx); err != nil {
		// Superseded while waiting; the newer load owns the session now.
		return nil
	}
	defer s.gate.Release()

	if loadCtx.Err() != nil {
		return nil
	}

	openingBalance := decimal.Zero
	if reset {
		var err error
		openingBalance, err = s.ledgerSvc.GetOpeningBalance(loadCtx, customerID, from)
		if err != nil {
			return s.failLoad(loadCtx, gen, err)
		}
	}

	skip := (page - 1) * s.cfg.PageSize
	rows, err := s.ledgerSvc.GetStatementPage(loadCtx, customerID, from, to, skip, s.cfg.PageSize+1)
	if err != nil {
		return s.failLoad(loadCtx, gen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Discard results that raced to completion for a customer the session has
	// already moved away from.
	if s.selectedCustomer == nil || s.selectedCustomer.CustomerID != customerID {
		return nil
	}

	hasMore := len(rows) > s.cfg.PageSize
	if hasMore {
		rows = rows[:s.cfg.PageSize]
	}

	if reset {
		s.openingBalance = openingBalance
		s.entries = nil
		s.currentBalance = openingBalance
		s.nextPage = 1
	}

	runningBalance := s.currentBalance
	for i := range rows {
		runningBalance = runningBalance.Add(rows[i].SignedAmount())
		rows[i].RunningBalance = runningBalance
	}

	s.entries = append(s.entries, rows...)
	s.currentBalance = runningBalance
	s.hasMore = hasMore
	if hasMore {
		s.nextPage++
	}

	return nil
}

// failLoad swallows cancellation (a superseded load is not an error) and
// records anything else as a retryable session error.
func (s *StatementSession) failLoad(ctx context.Context, gen uint64, err error) error {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil
	}

	s.mu.Lock()
	if s.generation == gen {
		s.lastError = loadErrorMessage
	}
	s.mu.Unlock()
	return err
}

// loadCustomers refreshes the lookup list, keeping the current selection when
// it survives the new filter, otherwise selecting the first match.
func (s *StatementSession) loadCustomers(ctx context.Context, searchText string, preserveSelection bool) error {
	if _, err := s.ledgerSvc.EnsureDefaultCustomer(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.setLastError("failed to load customers")
		return err
	}

	customers, _, err := s.ledgerSvc.SearchCustomers(ctx, searchText, s.cfg.CustomerPageSize, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.setLastError("failed to load customers")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	s.customers = customers
	previous := s.selectedCustomer

	var selected *domain.CustomerLookup
	if preserveSelection && previous != nil {
		for i := range customers {
			if customers[i].CustomerID == previous.CustomerID {
				selected = &customers[i]
				break
			}
		}
	}
	if selected == nil && len(customers) > 0 {
		selected = &customers[0]
	}

	selectionChanged := (selected == nil) != (previous == nil) ||
		(selected != nil && previous != nil && selected.CustomerID != previous.CustomerID)
	s.selectedCustomer = selected
	if selectionChanged {
		s.clearStatementLocked()
	}
	initialized := s.initialized
	s.mu.Unlock()

	if selected != nil && selectionChanged && initialized {
		return s.loadPage(ctx, true)
	}
	return nil
}

func (s *StatementSession) setLastError(message string) {
	s.mu.Lock()
	s.lastError = message
	s.mu.Unlock()
}

// clearStatementLocked resets the materialized statement. Caller holds s.mu.
func (s *StatementSession) clearStatementLocked() {
	s.entries = nil
	s.openingBalance = decimal.Zero
	s.currentBalance = decimal.Zero
	s.hasMore = false
	s.nextPage = 1
	s.lastError = ""
}
