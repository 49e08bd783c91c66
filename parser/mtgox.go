package parser

import (
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"

	"ticker-plant/market"
)

const (
	// MtGox 的 USD price_int 带 5 位小数，volume/amount_int 带 8 位小数。
	MtGoxPriceDecimals  int32 = 5
	MtGoxVolumeDecimals int32 = 8
)

type mtgoxMessage struct {
	Op      string      `json:"op"`
	Private string      `json:"private"`
	Depth   *mtgoxDepth `json:"depth"`
	Trade   *mtgoxTrade `json:"trade"`
}

type mtgoxDepth struct {
	TypeStr        string          `json:"type_str"`
	PriceInt       decimal.Decimal `json:"price_int"`
	TotalVolumeInt decimal.Decimal `json:"total_volume_int"`
	Currency       string          `json:"currency"`
	Now            decimal.Decimal `json:"now"`
}

type mtgoxTrade struct {
	Type          string          `json:"type"`
	Date          decimal.Decimal `json:"date"`
	Tid           decimal.Decimal `json:"tid"`
	PriceInt      decimal.Decimal `json:"price_int"`
	PriceCurrency string          `json:"price_currency"`
	Primary       string          `json:"primary"`
}

// MtGox 解析 MtGox 流式 API 的 depth / trade 推送。
// depth -> Quote（Volume 取 total_volume_int，即价位累计量），trade -> Trade。
// ticker、订阅回执等其它消息一律跳过。
type MtGox struct {
	Currency       string
	PriceDecimals  int32
	VolumeDecimals int32
	Clock          Clock
}

func NewMtGox() *MtGox {
	return &MtGox{
		Currency:       "USD",
		PriceDecimals:  MtGoxPriceDecimals,
		VolumeDecimals: MtGoxVolumeDecimals,
		Clock:          market.Now,
	}
}

func (p *MtGox) Parse(raw []byte) (market.Tick, bool) {
	var msg mtgoxMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return market.Tick{}, false
	}
	if msg.Op != "private" {
		return market.Tick{}, false
	}
	switch msg.Private {
	case "depth":
		if msg.Depth == nil {
			return market.Tick{}, false
		}
		return p.quote(msg.Depth)
	case "trade":
		if msg.Trade == nil {
			return market.Tick{}, false
		}
		return p.trade(msg.Trade)
	default:
		return market.Tick{}, false
	}
}

func (p *MtGox) quote(d *mtgoxDepth) (market.Tick, bool) {
	received := p.Clock()
	if !strings.EqualFold(d.Currency, p.Currency) {
		return market.Tick{}, false
	}
	var side market.Side
	switch strings.ToLower(d.TypeStr) {
	case "ask":
		side = market.Ask
	case "bid":
		side = market.Bid
	default:
		return market.Tick{}, false
	}
	if !d.PriceInt.IsPositive() || d.TotalVolumeInt.IsNegative() || !d.Now.IsPositive() {
		return market.Tick{}, false
	}
	fixed, err := market.FixedFromDecimal(d.PriceInt, 0)
	if err != nil {
		return market.Tick{}, false
	}
	volume, _ := d.TotalVolumeInt.Shift(-p.VolumeDecimals).Float64()
	return market.NewQuoteTick(market.Quote{
		Received:     received,
		ExchangeTime: uint64(d.Now.IntPart()),
		Side:         side,
		Price:        market.PriceFromFixed(int64(fixed), p.PriceDecimals),
		PriceFixed:   fixed,
		Volume:       volume,
	}), true
}

func (p *MtGox) trade(t *mtgoxTrade) (market.Tick, bool) {
	received := p.Clock()
	if t.Type != "trade" || !strings.EqualFold(t.PriceCurrency, p.Currency) {
		return market.Tick{}, false
	}
	// 同一笔成交会以各币种重复推送，只取 primary。
	if t.Primary != "" && !strings.EqualFold(t.Primary, "Y") {
		return market.Tick{}, false
	}
	if !t.PriceInt.IsPositive() {
		return market.Tick{}, false
	}
	fixed, err := market.FixedFromDecimal(t.PriceInt, 0)
	if err != nil {
		return market.Tick{}, false
	}
	var exTime uint64
	switch {
	case t.Tid.IsPositive():
		exTime = uint64(t.Tid.IntPart())
	case t.Date.IsPositive():
		exTime = uint64(t.Date.Shift(6).IntPart())
	default:
		return market.Tick{}, false
	}
	return market.NewTradeTick(market.Trade{
		Received:     received,
		ExchangeTime: exTime,
		Price:        market.PriceFromFixed(int64(fixed), p.PriceDecimals),
		PriceFixed:   fixed,
	}), true
}
