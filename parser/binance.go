package parser

import (
	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"

	"ticker-plant/market"
)

// binanceEnvelope 同时覆盖 combined stream 包装与裸推送。
type binanceEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
	binanceAggTrade
}

type binanceAggTrade struct {
	EventType string          `json:"e"`
	EventTime int64           `json:"E"`
	Symbol    string          `json:"s"`
	Price     decimal.Decimal `json:"p"`
	TradeTime int64           `json:"T"`
}

// Binance 解析 aggTrade 推送为 Trade；其它事件（depthUpdate、订阅回执等）跳过。
type Binance struct {
	PriceDecimals int32
	Clock         Clock
}

func NewBinance() *Binance {
	return &Binance{PriceDecimals: 2, Clock: market.Now}
}

func (p *Binance) Parse(raw []byte) (market.Tick, bool) {
	received := p.Clock()
	var env binanceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return market.Tick{}, false
	}
	ev := env.binanceAggTrade
	if len(env.Data) > 0 {
		ev = binanceAggTrade{}
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return market.Tick{}, false
		}
	}
	if ev.EventType != "aggTrade" || !ev.Price.IsPositive() || ev.TradeTime <= 0 {
		return market.Tick{}, false
	}
	fixed, err := market.FixedFromDecimal(ev.Price, p.PriceDecimals)
	if err != nil {
		return market.Tick{}, false
	}
	price, _ := ev.Price.Float64()
	return market.NewTradeTick(market.Trade{
		Received:     received,
		ExchangeTime: uint64(ev.TradeTime) * 1000,
		Price:        price,
		PriceFixed:   fixed,
	}), true
}
