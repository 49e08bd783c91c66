// Package sink holds tick handlers that persist or forward ticks.
package sink

import (
	"io"

	"ticker-plant/dispatch"
)

// Sink 是持有资源的 handler：OnTick 同步写入，Close 刷新并释放。
type Sink interface {
	dispatch.Handler
	io.Closer
}

type filtered struct {
	dispatch.Handler
	io.Closer
}

// Only 只把满足 pred 的 tick 交给 s，Close 仍作用于 s。
func Only(pred dispatch.Predicate, s Sink) Sink {
	return filtered{Handler: dispatch.Filter(pred, s), Closer: s}
}

// predicateFor 把配置里的 only 字段映射成过滤条件；空串表示不过滤。
func predicateFor(only string) dispatch.Predicate {
	switch only {
	case "trades":
		return dispatch.OnlyTrades
	case "quotes":
		return dispatch.OnlyQuotes
	default:
		return nil
	}
}
