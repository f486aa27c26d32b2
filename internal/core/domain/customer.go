package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCustomerName is the reserved name of the walk-in/cash customer.
// A non-archived customer carrying this name is treated as the default
// customer even if the is_default flag was never set.
const DefaultCustomerName = "Walk-in"

// Customer represents a ledger account holder.
type Customer struct {
	CustomerID      int64           `json:"customerID"`      // Primary Key, store-assigned
	Name            string          `json:"name"`            // Display name
	Phone           string          `json:"phone"`           // Nullable contact number
	PreviousBalance decimal.Decimal `json:"previousBalance"` // Balance before any ledger entry exists
	IsDefault       bool            `json:"isDefault"`       // Walk-in/cash customer flag
	IsArchived      bool            `json:"isArchived"`      // Soft delete; customers with history are never hard-deleted
	CreatedAt       time.Time       `json:"createdAt"`
}

// IsDefaultCustomer reports whether this customer is the walk-in customer.
// Archived customers never qualify; the sentinel name counts even when the
// flag is unset.
func (c *Customer) IsDefaultCustomer() bool {
	if c == nil || c.IsArchived {
		return false
	}
	return c.IsDefault || strings.EqualFold(c.Name, DefaultCustomerName)
}

// CustomerLookup is the lightweight shape used by customer pickers.
type CustomerLookup struct {
	CustomerID int64  `json:"customerID"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"isDefault"`
}

// DisplayName renders "Name - Phone" when a phone number is present.
func (c CustomerLookup) DisplayName() string {
	if strings.TrimSpace(c.Phone) == "" {
		return c.Name
	}
	return c.Name + " - " + c.Phone
}

// CustomerBalance pairs a customer with their current account balance.
type CustomerBalance struct {
	CustomerID int64           `json:"customerID"`
	Balance    decimal.Decimal `json:"balance"`
}
