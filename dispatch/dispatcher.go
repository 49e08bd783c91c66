// Package dispatch broadcasts ticks to registered handlers, synchronously and in order.
package dispatch

import (
	"fmt"

	"ticker-plant/market"
)

// Handler 观察者回调。Tick 以值传入，调用方不得持有超出本次调用的引用语义；
// 返回错误即终止整条管线。
type Handler interface {
	OnTick(t market.Tick) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(t market.Tick) error

func (f HandlerFunc) OnTick(t market.Tick) error { return f(t) }

// HandlerError 标记某个 handler 在 dispatch 中失败。
type HandlerError struct {
	Index int
	Tick  market.Tick
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d failed on %s: %v", e.Index, e.Tick.Kind(), e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Dispatcher 持有按注册顺序排列的 handler 列表。非并发安全：
// 注册必须在 Seal（即 Source.Run）之前完成。
type Dispatcher struct {
	handlers []Handler
	sealed   bool
}

func New() *Dispatcher {
	return &Dispatcher{handlers: make([]Handler, 0, 4)}
}

// Register 追加 handler，不去重、无优先级。Seal 之后注册会 panic。
func (d *Dispatcher) Register(h Handler) {
	if h == nil {
		panic("dispatch: nil handler")
	}
	if d.sealed {
		panic("dispatch: handler registered after run started")
	}
	d.handlers = append(d.handlers, h)
}

// Seal 禁止后续注册。
func (d *Dispatcher) Seal() { d.sealed = true }

// Len returns the number of registered handlers.
func (d *Dispatcher) Len() int { return len(d.handlers) }

// Dispatch 依注册顺序调用全部 handler；EMPTY 不分发。
// 第一个失败的 handler 终止本次分发，其后的 handler 不再被调用。
func (d *Dispatcher) Dispatch(t market.Tick) error {
	if t.IsEmpty() {
		return nil
	}
	for i, h := range d.handlers {
		if err := h.OnTick(t); err != nil {
			return &HandlerError{Index: i, Tick: t, Err: err}
		}
	}
	return nil
}
