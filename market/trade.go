package market

// Trade represents one executed transaction.
type Trade struct {
	Received     uint64 // 本地接收时间，微秒
	ExchangeTime uint64 // 交易所成交时间，微秒
	Price        float64
	PriceFixed   int32
}
