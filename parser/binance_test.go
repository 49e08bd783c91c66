package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinanceAggTradeCombined(t *testing.T) {
	raw := []byte(`{
		"stream":"btcusdt@aggTrade",
		"data":{"e":"aggTrade","E":1700000000123,"s":"BTCUSDT","a":12345,"p":"37000.12","q":"0.5","f":100,"l":105,"T":1700000000100,"m":true,"M":true}
	}`)
	p := NewBinance()
	p.Clock = fixedClock(99)

	tick, ok := p.Parse(raw)
	require.True(t, ok)
	tr := tick.Trade()
	assert.Equal(t, int32(3700012), tr.PriceFixed)
	assert.Equal(t, 37000.12, tr.Price)
	assert.Equal(t, uint64(1700000000100000), tr.ExchangeTime)
	assert.Equal(t, uint64(99), tr.Received)
}

func TestBinanceAggTradeRaw(t *testing.T) {
	raw := []byte(`{"e":"aggTrade","E":1700000000123,"s":"ETHUSDT","a":1,"p":"2000.5","q":"1","T":1700000000100,"m":false}`)
	tick, ok := NewBinance().Parse(raw)
	require.True(t, ok)
	assert.Equal(t, int32(200050), tick.Trade().PriceFixed)
}

func TestBinanceSkipsOtherEvents(t *testing.T) {
	for _, raw := range []string{
		`{"stream":"btcusdt@depth20@100ms","data":{"s":"BTCUSDT","b":[["100.1","1.2"]],"a":[["100.2","1.1"]]}}`,
		`{"result":null,"id":1}`,
		`{"e":"aggTrade","p":"-1","T":1}`,
		`not json`,
	} {
		_, ok := NewBinance().Parse([]byte(raw))
		assert.False(t, ok, raw)
	}
}
