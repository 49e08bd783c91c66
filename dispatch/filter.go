package dispatch

import "ticker-plant/market"

// Predicate 决定一个 tick 是否交给被包装的 handler。
type Predicate func(t market.Tick) bool

func OnlyQuotes(t market.Tick) bool { return t.Kind() == market.KindQuote }

func OnlyTrades(t market.Tick) bool { return t.Kind() == market.KindTrade }

// Filter 包装 h，只转发满足 pred 的 tick。
func Filter(pred Predicate, h Handler) Handler {
	return HandlerFunc(func(t market.Tick) error {
		if !pred(t) {
			return nil
		}
		return h.OnTick(t)
	})
}
