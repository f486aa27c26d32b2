package dto

import "time"

// CreateSessionResponse returns the id of a freshly opened statement session.
type CreateSessionResponse struct {
	SessionID string `json:"sessionID"`
}

// SelectCustomerRequest switches a session to another customer.
type SelectCustomerRequest struct {
	CustomerID int64 `json:"customerID" binding:"required"`
}

// SetFiltersRequest updates a session's statement date range. Either bound may
// be omitted for an open interval.
type SetFiltersRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// SearchCustomersRequest feeds one keystroke of the debounced customer search.
type SearchCustomersRequest struct {
	Term string `json:"term"`
}
