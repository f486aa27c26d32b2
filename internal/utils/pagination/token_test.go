package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerTokenRoundTrip(t *testing.T) {
	token := EncodeCustomerToken(true, "Walk-in", 42)

	isDefault, name, id, err := DecodeCustomerToken(token)
	require.NoError(t, err)
	assert.True(t, isDefault)
	assert.Equal(t, "Walk-in", name)
	assert.Equal(t, int64(42), id)
}

func TestCustomerTokenNamesMayContainSeparator(t *testing.T) {
	token := EncodeCustomerToken(false, "A|B Trading", 7)

	_, name, id, err := DecodeCustomerToken(token)
	require.NoError(t, err)
	assert.Equal(t, "A|B Trading", name)
	assert.Equal(t, int64(7), id)
}

func TestDecodeCustomerTokenRejectsGarbage(t *testing.T) {
	_, _, _, err := DecodeCustomerToken("not-base64!!")
	assert.Error(t, err)

	_, _, _, err = DecodeCustomerToken(EncodeMultiFieldToken("only-one-field"))
	assert.Error(t, err)

	_, _, _, err = DecodeCustomerToken(EncodeMultiFieldToken("notanint", "true", "name"))
	assert.Error(t, err)

	_, _, _, err = DecodeCustomerToken(EncodeMultiFieldToken("3", "notabool", "name"))
	assert.Error(t, err)
}
