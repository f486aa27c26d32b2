package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeCustomerToken creates a base64 cursor for the customer lookup list.
// The list is ordered by (is_default DESC, name ASC, customer_id ASC); the
// token captures the last row of the page so the next query resumes after it.
// The name goes last so it may itself contain the separator.
func EncodeCustomerToken(isDefault bool, name string, customerID int64) string {
	tokenStr := fmt.Sprintf("%d|%t|%s", customerID, isDefault, name)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeCustomerToken parses a customer lookup cursor back into its fields.
func DecodeCustomerToken(token string) (bool, string, int64, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return false, "", 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 {
		return false, "", 0, fmt.Errorf("invalid pagination token format (split)")
	}

	customerID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false, "", 0, fmt.Errorf("invalid pagination token format (customer id parse): %w", err)
	}

	isDefault, err := strconv.ParseBool(parts[1])
	if err != nil {
		return false, "", 0, fmt.Errorf("invalid pagination token format (default flag parse): %w", err)
	}

	return isDefault, parts[2], customerID, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields.
// This provides flexibility for different pagination strategies.
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields.
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	return strings.Split(string(decodedBytes), "|"), nil
}
