package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabat/pos_backend/internal/core/domain"
)

// CustomerResponse defines the data returned for a customer.
type CustomerResponse struct {
	CustomerID      int64           `json:"customerID"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	IsDefault       bool            `json:"isDefault"`
	IsArchived      bool            `json:"isArchived"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ToCustomerResponse converts a domain.Customer to CustomerResponse DTO
func ToCustomerResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID:      customer.CustomerID,
		Name:            customer.Name,
		Phone:           customer.Phone,
		PreviousBalance: customer.PreviousBalance,
		IsDefault:       customer.IsDefault,
		IsArchived:      customer.IsArchived,
		CreatedAt:       customer.CreatedAt,
	}
}

// CustomerLookupResponse is the lightweight shape used by the customer picker.
type CustomerLookupResponse struct {
	CustomerID  int64  `json:"customerID"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	IsDefault   bool   `json:"isDefault"`
	DisplayName string `json:"displayName"`
}

// ListCustomersResponse wraps a page of customer lookups with the token for
// the next page.
type ListCustomersResponse struct {
	Customers []CustomerLookupResponse `json:"customers"`
	NextToken *string                  `json:"nextToken,omitempty"`
}

// ToListCustomersResponse converts lookups and a pagination token to the DTO.
func ToListCustomersResponse(lookups []domain.CustomerLookup, nextToken *string) ListCustomersResponse {
	res := make([]CustomerLookupResponse, len(lookups))
	for i, lookup := range lookups {
		res[i] = CustomerLookupResponse{
			CustomerID:  lookup.CustomerID,
			Name:        lookup.Name,
			Phone:       lookup.Phone,
			IsDefault:   lookup.IsDefault,
			DisplayName: lookup.DisplayName(),
		}
	}
	return ListCustomersResponse{Customers: res, NextToken: nextToken}
}

// CurrentBalancesRequest asks for the current balances of a set of customers.
type CurrentBalancesRequest struct {
	CustomerIDs []int64 `json:"customerIDs" binding:"required,min=1"`
}

// CustomerBalanceResponse is one customer's current balance.
type CustomerBalanceResponse struct {
	CustomerID int64           `json:"customerID"`
	Balance    decimal.Decimal `json:"balance"`
}

// ToCustomerBalanceResponses converts domain balances to DTOs.
func ToCustomerBalanceResponses(balances []domain.CustomerBalance) []CustomerBalanceResponse {
	res := make([]CustomerBalanceResponse, len(balances))
	for i, balance := range balances {
		res[i] = CustomerBalanceResponse{CustomerID: balance.CustomerID, Balance: balance.Balance}
	}
	return res
}

// HasTransactionsResponse reports whether a customer has any ledger or invoice
// history.
type HasTransactionsResponse struct {
	CustomerID      int64 `json:"customerID"`
	HasTransactions bool  `json:"hasTransactions"`
}
