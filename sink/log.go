package sink

import (
	"go.uber.org/zap"

	"ticker-plant/market"
)

// TickLog 把每个 tick 以 info 级别打到日志，调试行情时使用。
type TickLog struct {
	log *zap.Logger
}

func NewTickLog(log *zap.Logger) *TickLog {
	if log == nil {
		log = zap.NewNop()
	}
	return &TickLog{log: log}
}

func (s *TickLog) OnTick(t market.Tick) error {
	switch t.Kind() {
	case market.KindQuote:
		q := t.Quote()
		s.log.Info("quote",
			zap.Stringer("side", q.Side),
			zap.Float64("price", q.Price),
			zap.Int32("priceFixed", q.PriceFixed),
			zap.Float64("volume", q.Volume),
			zap.Uint64("exchangeTime", q.ExchangeTime),
			zap.Int64("lagUs", t.Lag()),
		)
	case market.KindTrade:
		tr := t.Trade()
		s.log.Info("trade",
			zap.Float64("price", tr.Price),
			zap.Int32("priceFixed", tr.PriceFixed),
			zap.Uint64("exchangeTime", tr.ExchangeTime),
			zap.Int64("lagUs", t.Lag()),
		)
	}
	return nil
}

func (s *TickLog) Close() error { return nil }
