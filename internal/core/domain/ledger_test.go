package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// The running-balance convention is credit − debit (creditor-positive). Two
// historical variants of this subsystem disagreed on the sign; this test pins
// the chosen one so it cannot drift silently.
func TestSignedAmount_CreditMinusDebitConvention(t *testing.T) {
	debit := LedgerEntry{Debit: decimal.NewFromInt(50)}
	assert.True(t, debit.SignedAmount().Equal(decimal.NewFromInt(-50)))

	credit := LedgerEntry{Credit: decimal.NewFromInt(30)}
	assert.True(t, credit.SignedAmount().Equal(decimal.NewFromInt(30)))

	both := LedgerEntry{Debit: decimal.NewFromInt(10), Credit: decimal.NewFromInt(25)}
	assert.True(t, both.SignedAmount().Equal(decimal.NewFromInt(15)))
}

func TestSignedAmount_RunningBalanceWalkthrough(t *testing.T) {
	// previousBalance=100, then debit 50, then credit 30 => 100 -> 50 -> 80.
	balance := decimal.NewFromInt(100)
	entries := []LedgerEntry{
		{Debit: decimal.NewFromInt(50)},
		{Credit: decimal.NewFromInt(30)},
	}

	balance = balance.Add(entries[0].SignedAmount())
	assert.True(t, balance.Equal(decimal.NewFromInt(50)))

	balance = balance.Add(entries[1].SignedAmount())
	assert.True(t, balance.Equal(decimal.NewFromInt(80)))
}

func TestIsDefaultCustomer(t *testing.T) {
	flagged := &Customer{Name: "Ahmed", IsDefault: true}
	assert.True(t, flagged.IsDefaultCustomer())

	byName := &Customer{Name: "walk-IN"}
	assert.True(t, byName.IsDefaultCustomer(), "sentinel name match is case-insensitive")

	archived := &Customer{Name: DefaultCustomerName, IsDefault: true, IsArchived: true}
	assert.False(t, archived.IsDefaultCustomer(), "archived customers never qualify")

	regular := &Customer{Name: "Ahmed"}
	assert.False(t, regular.IsDefaultCustomer())

	var nilCustomer *Customer
	assert.False(t, nilCustomer.IsDefaultCustomer())
}

func TestCustomerLookupDisplayName(t *testing.T) {
	assert.Equal(t, "Ahmed", CustomerLookup{Name: "Ahmed"}.DisplayName())
	assert.Equal(t, "Ahmed - 0100", CustomerLookup{Name: "Ahmed", Phone: "0100"}.DisplayName())
	assert.Equal(t, "Ahmed", CustomerLookup{Name: "Ahmed", Phone: "  "}.DisplayName())
}
