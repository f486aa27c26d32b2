package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabat/pos_backend/internal/core/domain"
)

// StatementEntryResponse is one ledger entry as shown on a statement.
type StatementEntryResponse struct {
	EntryID         int64           `json:"entryID"`
	Date            time.Time       `json:"date"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"referenceNumber"`
	PaymentMethod   string          `json:"paymentMethod"`
	RunningBalance  decimal.Decimal `json:"runningBalance"`
}

// ToStatementEntryResponse converts a domain.LedgerEntry to its DTO.
func ToStatementEntryResponse(entry domain.LedgerEntry) StatementEntryResponse {
	return StatementEntryResponse{
		EntryID:         entry.EntryID,
		Date:            entry.Date,
		Debit:           entry.Debit,
		Credit:          entry.Credit,
		Description:     entry.Description,
		ReferenceNumber: entry.ReferenceNumber,
		PaymentMethod:   entry.PaymentMethod,
		RunningBalance:  entry.RunningBalance,
	}
}

// StatementResponse is a range of entries with running balances and the
// opening balance they walk from.
type StatementResponse struct {
	CustomerID     int64                    `json:"customerID"`
	OpeningBalance decimal.Decimal          `json:"openingBalance"`
	Entries        []StatementEntryResponse `json:"entries"`
}

// ToStatementResponse converts annotated entries plus the opening balance.
func ToStatementResponse(customerID int64, openingBalance decimal.Decimal, entries []domain.LedgerEntry) StatementResponse {
	res := make([]StatementEntryResponse, len(entries))
	for i, entry := range entries {
		res[i] = ToStatementEntryResponse(entry)
	}
	return StatementResponse{CustomerID: customerID, OpeningBalance: openingBalance, Entries: res}
}

// OpeningBalanceResponse is the balance at the start of a statement period.
type OpeningBalanceResponse struct {
	CustomerID     int64           `json:"customerID"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// RecordInvoiceEntriesRequest posts the debit/credit pair for an invoice.
type RecordInvoiceEntriesRequest struct {
	CustomerID           int64           `json:"customerID" binding:"required"`
	InvoiceNumber        string          `json:"invoiceNumber" binding:"required"`
	Date                 time.Time       `json:"date" binding:"required"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	AmountPaid           decimal.Decimal `json:"amountPaid"`
	InvoicePaymentMethod string          `json:"invoicePaymentMethod"`
	PaymentEntryMethod   string          `json:"paymentEntryMethod"`
}

// RecordPaymentRequest posts a standalone customer payment.
type RecordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   string          `json:"paymentMethod" binding:"required"`
	ReferenceNumber string          `json:"referenceNumber"`
	Date            *time.Time      `json:"date"`
}

// RecordCashMovementRequest posts a drawer cash movement.
type RecordCashMovementRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	CashName string          `json:"cashName"`
	Type     string          `json:"type" binding:"required,oneof=INCOME OUTCOME"`
}

// CashMovementResponse returns the id of a recorded movement; a nil id means
// the request was a no-op.
type CashMovementResponse struct {
	MovementID *int64 `json:"movementID"`
}
