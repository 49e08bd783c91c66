package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedFromDecimal(t *testing.T) {
	v, err := FixedFromDecimal(decimal.RequireFromString("100.5"), 2)
	require.NoError(t, err)
	assert.Equal(t, int32(10050), v)

	v, err = FixedFromDecimal(decimal.RequireFromString("125.019999"), 5)
	require.NoError(t, err)
	assert.Equal(t, int32(12501999), v)

	_, err = FixedFromDecimal(decimal.RequireFromString("30000"), 5)
	assert.ErrorIs(t, err, ErrFixedOverflow)
}

func TestPriceFromFixed(t *testing.T) {
	assert.Equal(t, 125.01, PriceFromFixed(12501000, 5))
	assert.Equal(t, 101.0, PriceFromFixed(10100, 2))
}
