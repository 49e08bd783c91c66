package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteTickAccessor(t *testing.T) {
	q := Quote{Received: 20, ExchangeTime: 10, Side: Bid, Price: 100.5, PriceFixed: 10050, Volume: 2}
	tick := NewQuoteTick(q)

	assert.Equal(t, KindQuote, tick.Kind())
	assert.False(t, tick.IsEmpty())
	assert.Equal(t, q, tick.Quote())
	assert.Equal(t, uint64(20), tick.Received())
	assert.Equal(t, uint64(10), tick.ExchangeTime())
	assert.Equal(t, int64(10), tick.Lag())
}

func TestTradeAccessorOnQuotePanics(t *testing.T) {
	tick := NewQuoteTick(Quote{Side: Ask, Price: 1})

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(*KindMismatchError)
		require.True(t, ok, "unexpected panic value %v", r)
		assert.Equal(t, KindTrade, err.Want)
		assert.Equal(t, KindQuote, err.Got)
	}()
	_ = tick.Trade()
}

func TestEmptyTick(t *testing.T) {
	var tick Tick
	assert.True(t, tick.IsEmpty())
	assert.Equal(t, "EMPTY", tick.String())
	assert.Zero(t, tick.Received())
	assert.Panics(t, func() { _ = tick.Quote() })
	assert.Panics(t, func() { _ = tick.Trade() })
}

func TestTradeTickAccessor(t *testing.T) {
	tr := Trade{Received: 5, ExchangeTime: 3, Price: 101, PriceFixed: 10100}
	tick := NewTradeTick(tr)
	assert.Equal(t, tr, tick.Trade())
	assert.Panics(t, func() { _ = tick.Quote() })
}

func TestSideAndKindString(t *testing.T) {
	assert.Equal(t, "ASK", Ask.String())
	assert.Equal(t, "BID", Bid.String())
	assert.Equal(t, "Side(7)", Side(7).String())
	assert.Equal(t, "TRADE", KindTrade.String())
	assert.False(t, Kind(3).Valid())
}
