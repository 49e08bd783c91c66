package market

import (
	"fmt"
	"time"
)

// Kind 是 Tick 的判别值。
type Kind uint32

const (
	KindEmpty Kind = iota
	KindQuote
	KindTrade
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindQuote:
		return "QUOTE"
	case KindTrade:
		return "TRADE"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

// Valid reports whether k is a known discriminant.
func (k Kind) Valid() bool {
	return k <= KindTrade
}

// KindMismatchError 在以错误的判别值读取 Tick 负载时作为 panic 值抛出。
type KindMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("tick kind mismatch: want %s, got %s", e.Want, e.Got)
}

// Tick 是 EMPTY / QUOTE / TRADE 的判别联合。零值为 EMPTY。
// 字段不导出：判别值与负载只能通过 NewQuoteTick / NewTradeTick 一起设置。
type Tick struct {
	kind  Kind
	quote Quote
	trade Trade
}

// NewQuoteTick wraps a quote.
func NewQuoteTick(q Quote) Tick {
	return Tick{kind: KindQuote, quote: q}
}

// NewTradeTick wraps a trade.
func NewTradeTick(t Trade) Tick {
	return Tick{kind: KindTrade, trade: t}
}

func (t Tick) Kind() Kind { return t.kind }

func (t Tick) IsEmpty() bool { return t.kind == KindEmpty }

// Quote 返回报价负载；判别值不是 QUOTE 时 panic。
func (t Tick) Quote() Quote {
	if t.kind != KindQuote {
		panic(&KindMismatchError{Want: KindQuote, Got: t.kind})
	}
	return t.quote
}

// Trade 返回成交负载；判别值不是 TRADE 时 panic。
func (t Tick) Trade() Trade {
	if t.kind != KindTrade {
		panic(&KindMismatchError{Want: KindTrade, Got: t.kind})
	}
	return t.trade
}

// Received 返回本地接收时间，EMPTY 返回 0。
func (t Tick) Received() uint64 {
	switch t.kind {
	case KindQuote:
		return t.quote.Received
	case KindTrade:
		return t.trade.Received
	}
	return 0
}

// ExchangeTime 返回交易所时间，EMPTY 返回 0。
func (t Tick) ExchangeTime() uint64 {
	switch t.kind {
	case KindQuote:
		return t.quote.ExchangeTime
	case KindTrade:
		return t.trade.ExchangeTime
	}
	return 0
}

// Lag 返回接收时间与交易所时间之差（微秒），时钟倒挂时为负。
func (t Tick) Lag() int64 {
	if t.kind == KindEmpty {
		return 0
	}
	return int64(t.Received()) - int64(t.ExchangeTime())
}

func (t Tick) String() string {
	switch t.kind {
	case KindQuote:
		q := t.quote
		return fmt.Sprintf("Q %d %d %s %.5f(%d) vol=%.8f", q.Received, q.ExchangeTime, q.Side, q.Price, q.PriceFixed, q.Volume)
	case KindTrade:
		tr := t.trade
		return fmt.Sprintf("T %d %d %.5f(%d)", tr.Received, tr.ExchangeTime, tr.Price, tr.PriceFixed)
	default:
		return t.kind.String()
	}
}

// Now 返回当前时间（微秒），用于给 Tick 打接收时间戳。
func Now() uint64 {
	return uint64(time.Now().UnixMicro())
}
