package market

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var ErrFixedOverflow = errors.New("price does not fit fixed-point int32")

// FixedFromDecimal 把十进制价格按 decimals 位小数转换为定点整数（向零截断）。
func FixedFromDecimal(price decimal.Decimal, decimals int32) (int32, error) {
	scaled := price.Shift(decimals).Truncate(0).BigInt()
	if !scaled.IsInt64() {
		return 0, ErrFixedOverflow
	}
	v := scaled.Int64()
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, ErrFixedOverflow
	}
	return int32(v), nil
}

// PriceFromFixed 把定点整数还原为浮点价格。
func PriceFromFixed(fixed int64, decimals int32) float64 {
	f, _ := decimal.New(fixed, -decimals).Float64()
	return f
}
