package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known entry descriptions used by posting operations.
const (
	EntryDescriptionInvoice         = "Invoice"
	EntryDescriptionPayment         = "Payment"
	EntryDescriptionCustomerPayment = "Customer Payment"
)

// LedgerEntry is one dated debit-or-credit record against a customer account.
// Entries are append-only: once written they are never updated or deleted.
// Normal postings populate exactly one of Debit/Credit, though the model does
// not enforce this.
type LedgerEntry struct {
	EntryID         int64           `json:"entryID"`    // Primary Key, store-assigned, monotonic
	CustomerID      int64           `json:"customerID"` // FK -> Customer.customerID
	Date            time.Time       `json:"date"`       // Business date, not creation order
	Debit           decimal.Decimal `json:"debit"`      // Increases what the customer owes
	Credit          decimal.Decimal `json:"credit"`     // Decreases what the customer owes
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"referenceNumber"` // Invoice number or external reference
	PaymentMethod   string          `json:"paymentMethod"`
	CreatedAt       time.Time       `json:"createdAt"`

	// RunningBalance is derived per query (opening balance plus all antecedent
	// entries) and is never persisted back to the store.
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// SignedAmount is the entry's contribution to the running balance.
//
// The convention is credit − debit (creditor-positive): a positive balance
// means the account is in credit, a debit (invoice) pushes it negative.
// This is part of the LedgerEntry contract and is applied uniformly to
// opening-balance computation, page continuation and display.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	return e.Credit.Sub(e.Debit)
}

// CashMovementType distinguishes drawer inflows from outflows.
type CashMovementType string

const (
	CashIncome  CashMovementType = "INCOME"
	CashOutcome CashMovementType = "OUTCOME"
)

// DefaultCashName is the drawer label used when the caller supplies none.
const DefaultCashName = "POS"

// CashMovement records physical drawer cash flow. It is owned by the drawer
// subsystem and is independent of any customer's ledger.
type CashMovement struct {
	MovementID int64            `json:"movementID"` // Primary Key, store-assigned
	CashName   string           `json:"cashName"`
	Amount     decimal.Decimal  `json:"amount"`
	Type       CashMovementType `json:"type"`
	CreatedAt  time.Time        `json:"createdAt"`
}
