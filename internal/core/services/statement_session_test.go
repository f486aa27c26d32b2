package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/hisabat/pos_backend/internal/core/domain"
	"github.com/hisabat/pos_backend/internal/core/services"
)

// --- Mock LedgerSvc ---
type MockLedgerSvc struct {
	mock.Mock
}

func (m *MockLedgerSvc) EnsureDefaultCustomer(ctx context.Context) (*domain.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockLedgerSvc) GetDefaultCustomer(ctx context.Context) (*domain.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockLedgerSvc) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockLedgerSvc) IsDefaultCustomer(customer *domain.Customer) bool {
	args := m.Called(customer)
	return args.Bool(0)
}

func (m *MockLedgerSvc) IsDefaultCustomerID(ctx context.Context, customerID int64) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerSvc) GetOpeningBalance(ctx context.Context, customerID int64, from *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID, from)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerSvc) GetStatement(ctx context.Context, customerID int64, from, to *time.Time) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, customerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerSvc) GetStatementPage(ctx context.Context, customerID int64, from, to *time.Time, skip, take int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, customerID, from, to, skip, take)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerSvc) GetCurrentBalances(ctx context.Context, customerIDs []int64) ([]domain.CustomerBalance, error) {
	args := m.Called(ctx, customerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CustomerBalance), args.Error(1)
}

func (m *MockLedgerSvc) RecordInvoiceEntries(ctx context.Context, customerID int64, invoiceNumber string, date time.Time, totalAmount, amountPaid decimal.Decimal, invoicePaymentMethod, paymentEntryMethod string) error {
	args := m.Called(ctx, customerID, invoiceNumber, date, totalAmount, amountPaid, invoicePaymentMethod, paymentEntryMethod)
	return args.Error(0)
}

func (m *MockLedgerSvc) RecordCustomerPayment(ctx context.Context, customerID int64, amount decimal.Decimal, paymentMethod, referenceNumber string, date time.Time) error {
	args := m.Called(ctx, customerID, amount, paymentMethod, referenceNumber, date)
	return args.Error(0)
}

func (m *MockLedgerSvc) RecordCashMovement(ctx context.Context, amount decimal.Decimal, cashName string, movementType domain.CashMovementType) (*int64, error) {
	args := m.Called(ctx, amount, cashName, movementType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockLedgerSvc) HasCustomerTransactions(ctx context.Context, customerID int64) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerSvc) SearchCustomers(ctx context.Context, term string, limit int, nextToken *string) ([]domain.CustomerLookup, *string, error) {
	args := m.Called(ctx, term, limit, nextToken)
	var lookups []domain.CustomerLookup
	if args.Get(0) != nil {
		lookups = args.Get(0).([]domain.CustomerLookup)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return lookups, token, args.Error(2)
}

// --- Test Suite ---
type StatementSessionTestSuite struct {
	suite.Suite
	mockSvc *MockLedgerSvc
	cfg     services.StatementSessionConfig
}

func (suite *StatementSessionTestSuite) SetupTest() {
	suite.mockSvc = new(MockLedgerSvc)
	suite.cfg = services.StatementSessionConfig{
		PageSize:          2,
		CustomerPageSize:  100,
		SearchDebounce:    20 * time.Millisecond,
		CashPaymentMethod: "Cash",
	}
}

var (
	walkInCustomer = &domain.Customer{CustomerID: 1, Name: domain.DefaultCustomerName, IsDefault: true}
	acmeCustomer   = &domain.Customer{CustomerID: 5, Name: "Acme", PreviousBalance: decimal.RequireFromString("100")}
	acmeLookup     = domain.CustomerLookup{CustomerID: 5, Name: "Acme"}
	walkInLookup   = domain.CustomerLookup{CustomerID: 1, Name: domain.DefaultCustomerName, IsDefault: true}
)

func entry(id int64, debit, credit string) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:    id,
		CustomerID: 5,
		Date:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Debit:      decimal.RequireFromString(debit),
		Credit:     decimal.RequireFromString(credit),
	}
}

// newInitializedSession wires the bootstrap expectations: default customer
// ensured, customer list loaded, walk-in selected first and its empty first
// page materialized.
func (suite *StatementSessionTestSuite) newInitializedSession() *services.StatementSession {
	suite.mockSvc.On("EnsureDefaultCustomer", mock.Anything).Return(walkInCustomer, nil).Once()
	suite.mockSvc.On("SearchCustomers", mock.Anything, "", 100, (*string)(nil)).
		Return([]domain.CustomerLookup{walkInLookup, acmeLookup}, nil, nil).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(1), (*time.Time)(nil)).
		Return(decimal.Zero, nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(1), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Return([]domain.LedgerEntry{}, nil).Once()

	session := services.NewStatementSession(suite.mockSvc, suite.cfg)
	suite.Require().NoError(session.Initialize(context.Background()))
	return session
}

func (suite *StatementSessionTestSuite) TestInitialize_SelectsFirstCustomer() {
	session := suite.newInitializedSession()
	defer session.Close()

	snapshot := session.Snapshot()
	suite.Require().NotNil(snapshot.Customer)
	suite.Equal(int64(1), snapshot.Customer.CustomerID)
	suite.Len(snapshot.Customers, 2)
	suite.False(snapshot.HasMore)
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *StatementSessionTestSuite) TestSelectCustomer_PagedBalancesMatchUnpagedWalk() {
	session := suite.newInitializedSession()
	defer session.Close()

	// Three entries against a 2-entry page: the probe row signals one more page.
	opening := decimal.RequireFromString("100")
	all := []domain.LedgerEntry{entry(1, "50", "0"), entry(2, "0", "30"), entry(3, "0", "10")}

	suite.mockSvc.On("GetCustomer", mock.Anything, int64(5)).Return(acmeCustomer, nil).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(5), (*time.Time)(nil)).Return(opening, nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(5), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Return(all, nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(5), (*time.Time)(nil), (*time.Time)(nil), 2, 3).
		Return(all[2:], nil).Once()

	suite.Require().NoError(session.SelectCustomer(context.Background(), 5))

	snapshot := session.Snapshot()
	suite.Require().Len(snapshot.Entries, 2)
	suite.True(snapshot.HasMore)
	suite.True(snapshot.OpeningBalance.Equal(opening))
	suite.True(snapshot.Entries[0].RunningBalance.Equal(decimal.RequireFromString("50")))
	suite.True(snapshot.Entries[1].RunningBalance.Equal(decimal.RequireFromString("80")))
	suite.True(snapshot.CurrentBalance.Equal(decimal.RequireFromString("80")))

	suite.Require().NoError(session.LoadNextPage(context.Background()))

	snapshot = session.Snapshot()
	suite.Require().Len(snapshot.Entries, 3)
	suite.False(snapshot.HasMore)
	// The appended page continues from the previous page's balance, landing on
	// the same value an unpaged walk would produce.
	suite.True(snapshot.Entries[2].RunningBalance.Equal(decimal.RequireFromString("90")))
	suite.True(snapshot.CurrentBalance.Equal(decimal.RequireFromString("90")))
	suite.True(snapshot.TotalDebit.Equal(decimal.RequireFromString("50")))
	suite.True(snapshot.TotalCredit.Equal(decimal.RequireFromString("40")))
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *StatementSessionTestSuite) TestLoadNextPage_NoopWithoutMore() {
	session := suite.newInitializedSession()
	defer session.Close()

	suite.Require().NoError(session.LoadNextPage(context.Background()))

	// One page load happened during Initialize; none after.
	suite.mockSvc.AssertNumberOfCalls(suite.T(), "GetStatementPage", 1)
}

func (suite *StatementSessionTestSuite) TestSetDateRange_RecomputesOpeningBalance() {
	session := suite.newInitializedSession()
	defer session.Close()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	opening := decimal.RequireFromString("60")

	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(1), &from).Return(opening, nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(1), &from, &to, 0, 3).
		Return([]domain.LedgerEntry{}, nil).Once()

	suite.Require().NoError(session.SetDateRange(context.Background(), &from, &to))

	snapshot := session.Snapshot()
	suite.True(snapshot.OpeningBalance.Equal(opening))
	suite.True(snapshot.CurrentBalance.Equal(opening))
	suite.Equal(&from, snapshot.DateFrom)
	suite.Equal(&to, snapshot.DateTo)
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *StatementSessionTestSuite) TestRecordPayment_Validation() {
	session := services.NewStatementSession(suite.mockSvc, suite.cfg)
	defer session.Close()

	err := session.RecordPayment(context.Background(), decimal.RequireFromString("10"), "Cash", "")
	suite.ErrorIs(err, services.ErrNoCustomerSelected)

	session = suite.newInitializedSession()
	defer session.Close()

	// Walk-in is selected after Initialize.
	err = session.RecordPayment(context.Background(), decimal.RequireFromString("10"), "Cash", "")
	suite.ErrorIs(err, services.ErrDefaultCustomerPayment)

	suite.selectAcme(session)

	err = session.RecordPayment(context.Background(), decimal.Zero, "Cash", "")
	suite.ErrorIs(err, services.ErrNonPositiveAmount)

	err = session.RecordPayment(context.Background(), decimal.RequireFromString("10"), "", "")
	suite.ErrorIs(err, services.ErrPaymentMethodRequired)

	suite.mockSvc.AssertNotCalled(suite.T(), "RecordCustomerPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// selectAcme switches the session to the non-default customer with an empty
// statement.
func (suite *StatementSessionTestSuite) selectAcme(session *services.StatementSession) {
	suite.mockSvc.On("GetCustomer", mock.Anything, int64(5)).Return(acmeCustomer, nil).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(5), (*time.Time)(nil)).
		Return(decimal.RequireFromString("100"), nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(5), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Return([]domain.LedgerEntry{}, nil).Once()
	suite.Require().NoError(session.SelectCustomer(context.Background(), 5))
}

func (suite *StatementSessionTestSuite) TestRecordPayment_CashMirrorsToDrawer() {
	session := suite.newInitializedSession()
	defer session.Close()
	suite.selectAcme(session)

	amount := decimal.RequireFromString("40")
	movementID := int64(77)

	suite.mockSvc.On("RecordCustomerPayment", mock.Anything, int64(5), amount, "Cash", "RCPT-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockSvc.On("RecordCashMovement", mock.Anything, amount, domain.EntryDescriptionCustomerPayment, domain.CashIncome).Return(&movementID, nil).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(5), (*time.Time)(nil)).
		Return(decimal.RequireFromString("140"), nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(5), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Return([]domain.LedgerEntry{}, nil).Once()

	err := session.RecordPayment(context.Background(), amount, "Cash", "RCPT-1")

	suite.Require().NoError(err)
	suite.True(session.Snapshot().CurrentBalance.Equal(decimal.RequireFromString("140")))
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *StatementSessionTestSuite) TestRecordPayment_NonCashSkipsDrawer() {
	session := suite.newInitializedSession()
	defer session.Close()
	suite.selectAcme(session)

	amount := decimal.RequireFromString("40")

	suite.mockSvc.On("RecordCustomerPayment", mock.Anything, int64(5), amount, "Card", "", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(5), (*time.Time)(nil)).
		Return(decimal.RequireFromString("140"), nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(5), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Return([]domain.LedgerEntry{}, nil).Once()

	err := session.RecordPayment(context.Background(), amount, "Card", "")

	suite.Require().NoError(err)
	suite.mockSvc.AssertNotCalled(suite.T(), "RecordCashMovement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StatementSessionTestSuite) TestRecordPayment_DrawerFailureStillReloads() {
	session := suite.newInitializedSession()
	defer session.Close()
	suite.selectAcme(session)

	amount := decimal.RequireFromString("40")

	suite.mockSvc.On("RecordCustomerPayment", mock.Anything, int64(5), amount, "Cash", "", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockSvc.On("RecordCashMovement", mock.Anything, amount, domain.EntryDescriptionCustomerPayment, domain.CashIncome).
		Return(nil, context.DeadlineExceeded).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(5), (*time.Time)(nil)).
		Return(decimal.RequireFromString("140"), nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(5), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Return([]domain.LedgerEntry{}, nil).Once()

	err := session.RecordPayment(context.Background(), amount, "Cash", "")

	// The payment committed, so the statement reloads even though the drawer
	// write failed, and the caller still learns about the drawer failure.
	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrCashMovementFailed)
	suite.True(session.Snapshot().CurrentBalance.Equal(decimal.RequireFromString("140")))
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *StatementSessionTestSuite) TestSelectCustomer_StaleLoadDiscarded() {
	session := suite.newInitializedSession()
	defer session.Close()

	fetchStarted := make(chan struct{})
	releaseFetch := make(chan struct{})

	bobCustomer := &domain.Customer{CustomerID: 6, Name: "Bob"}
	staleEntries := []domain.LedgerEntry{entry(1, "999", "0")}

	suite.mockSvc.On("GetCustomer", mock.Anything, int64(5)).Return(acmeCustomer, nil).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(5), (*time.Time)(nil)).
		Return(decimal.Zero, nil).Once()
	// Acme's page fetch stalls until the session has moved on to Bob, then
	// returns rows that must not be applied.
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(5), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Run(func(args mock.Arguments) {
			close(fetchStarted)
			<-releaseFetch
		}).Return(staleEntries, nil).Once()

	suite.mockSvc.On("GetCustomer", mock.Anything, int64(6)).Return(bobCustomer, nil).Once()
	suite.mockSvc.On("GetOpeningBalance", mock.Anything, int64(6), (*time.Time)(nil)).
		Return(decimal.RequireFromString("7"), nil).Once()
	suite.mockSvc.On("GetStatementPage", mock.Anything, int64(6), (*time.Time)(nil), (*time.Time)(nil), 0, 3).
		Return([]domain.LedgerEntry{}, nil).Once()

	acmeDone := make(chan error, 1)
	go func() {
		acmeDone <- session.SelectCustomer(context.Background(), 5)
	}()
	<-fetchStarted

	bobDone := make(chan error, 1)
	go func() {
		bobDone <- session.SelectCustomer(context.Background(), 6)
	}()

	// Give Bob's load a moment to queue on the gate, then let Acme's stale
	// fetch complete.
	time.Sleep(20 * time.Millisecond)
	close(releaseFetch)

	suite.Require().NoError(<-acmeDone)
	suite.Require().NoError(<-bobDone)

	snapshot := session.Snapshot()
	suite.Require().NotNil(snapshot.Customer)
	suite.Equal(int64(6), snapshot.Customer.CustomerID)
	suite.Empty(snapshot.Entries)
	suite.True(snapshot.CurrentBalance.Equal(decimal.RequireFromString("7")))
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *StatementSessionTestSuite) TestSearchCustomers_OnlyNewestExecutes() {
	session := suite.newInitializedSession()
	defer session.Close()

	suite.mockSvc.On("EnsureDefaultCustomer", mock.Anything).Return(walkInCustomer, nil)
	suite.mockSvc.On("SearchCustomers", mock.Anything, "acme", 100, (*string)(nil)).
		Return([]domain.CustomerLookup{walkInLookup, acmeLookup}, nil, nil).Once()

	session.SearchCustomers("a")
	session.SearchCustomers("ac")
	session.SearchCustomers("acme")

	time.Sleep(100 * time.Millisecond)

	suite.mockSvc.AssertNotCalled(suite.T(), "SearchCustomers", mock.Anything, "a", 100, (*string)(nil))
	suite.mockSvc.AssertNotCalled(suite.T(), "SearchCustomers", mock.Anything, "ac", 100, (*string)(nil))
	suite.mockSvc.AssertExpectations(suite.T())

	// The selection survived the refresh, so no statement reload happened.
	snapshot := session.Snapshot()
	suite.Require().NotNil(snapshot.Customer)
	suite.Equal(int64(1), snapshot.Customer.CustomerID)
}

func TestStatementSessionTestSuite(t *testing.T) {
	suite.Run(t, new(StatementSessionTestSuite))
}
