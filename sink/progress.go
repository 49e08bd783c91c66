package sink

import (
	"sync/atomic"

	"go.uber.org/zap"

	"ticker-plant/infrastructure/logger"
	"ticker-plant/market"
)

// Progress 每 N 个 tick 记录一次 tick_progress 事件（累计数量与最近一笔的延迟）。
type Progress struct {
	log    *logger.Logger
	source string
	every  atomic.Uint64

	ticks  uint64
	quotes uint64
	trades uint64
}

func NewProgress(log *logger.Logger, source string, every uint64) *Progress {
	if log == nil {
		log = logger.Wrap(nil)
	}
	p := &Progress{log: log, source: source}
	p.every.Store(every)
	return p
}

// SetEvery 调整间隔，可在运行中由配置热更新调用；0 表示关闭。
func (p *Progress) SetEvery(n uint64) { p.every.Store(n) }

func (p *Progress) OnTick(t market.Tick) error {
	p.ticks++
	switch t.Kind() {
	case market.KindQuote:
		p.quotes++
	case market.KindTrade:
		p.trades++
	}
	every := p.every.Load()
	if every == 0 || p.ticks%every != 0 {
		return nil
	}
	err := p.log.LogEvent("tick_progress", map[string]interface{}{
		"source": p.source,
		"ticks":  p.ticks,
		"quotes": p.quotes,
		"trades": p.trades,
		"lagMs":  float64(t.Lag()) / 1e3,
	})
	if err != nil {
		p.log.Warn("progress event rejected", zap.Error(err))
	}
	return nil
}

func (p *Progress) Close() error { return nil }
