// Package source drives ingestion from a medium through a parser into a dispatcher.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ticker-plant/dispatch"
	"ticker-plant/metrics"
	"ticker-plant/parser"
)

var (
	// ErrMediumOpen 介质无法打开（库、文件、连接），Run 立即失败。
	ErrMediumOpen = errors.New("medium open failed")
	// ErrMediumRead 读取中途失败。回放源表示不完整读取（已分发的 tick 仍然有效），
	// 实时源表示连接失效。
	ErrMediumRead = errors.New("medium read failed")

	ErrAlreadyRunning = errors.New("source already running")
)

// Source 是绑定到单一介质的摄取驱动。Run 阻塞直到介质耗尽或出现致命错误；
// handler 必须在 Run 之前通过 AddHandler 注册。
type Source interface {
	Name() string
	AddHandler(h dispatch.Handler)
	Run(ctx context.Context) error
	Stats() Stats
}

// Stats 是一次或多次 Run 的累计计数。
type Stats struct {
	Read       uint64
	Skipped    uint64
	Dispatched uint64
}

// pipeline 是所有介质共享的 parser -> dispatcher 下游。
type pipeline struct {
	name   string
	parser parser.Parser
	disp   *dispatch.Dispatcher
	log    *zap.Logger

	running    atomic.Bool
	read       atomic.Uint64
	skipped    atomic.Uint64
	dispatched atomic.Uint64
}

func newPipeline(name string, p parser.Parser, log *zap.Logger) pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return pipeline{
		name:   name,
		parser: p,
		disp:   dispatch.New(),
		log:    log.With(zap.String("source", name)),
	}
}

func (p *pipeline) Name() string { return p.name }

func (p *pipeline) AddHandler(h dispatch.Handler) { p.disp.Register(h) }

func (p *pipeline) Stats() Stats {
	return Stats{
		Read:       p.read.Load(),
		Skipped:    p.skipped.Load(),
		Dispatched: p.dispatched.Load(),
	}
}

func (p *pipeline) begin() error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	p.disp.Seal()
	p.log.Info("source started", zap.Int("handlers", p.disp.Len()))
	return nil
}

func (p *pipeline) end(err error) {
	p.running.Store(false)
	st := p.Stats()
	fields := []zap.Field{
		zap.Uint64("read", st.Read),
		zap.Uint64("skipped", st.Skipped),
		zap.Uint64("dispatched", st.Dispatched),
	}
	if err != nil {
		p.log.Error("source stopped", append(fields, zap.Error(err))...)
		return
	}
	p.log.Info("source finished", fields...)
}

// consume 解析一条原始消息并同步分发；只有 handler 失败会返回错误。
func (p *pipeline) consume(raw []byte) error {
	p.read.Add(1)
	metrics.MessagesRead.WithLabelValues(p.name).Inc()

	tick, ok := p.parser.Parse(raw)
	if !ok {
		p.skipped.Add(1)
		metrics.ParseSkipped.WithLabelValues(p.name).Inc()
		p.log.Debug("un-handled message", zap.Int("bytes", len(raw)))
		return nil
	}

	start := time.Now()
	if err := p.disp.Dispatch(tick); err != nil {
		metrics.HandlerFailures.WithLabelValues(p.name).Inc()
		return err
	}
	metrics.DispatchLatency.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
	if tick.IsEmpty() {
		return nil
	}
	metrics.TicksDispatched.WithLabelValues(p.name, tick.Kind().String()).Inc()
	metrics.FeedLag.WithLabelValues(p.name).Set(float64(tick.Lag()) / 1e6)
	p.dispatched.Add(1)
	return nil
}

func (p *pipeline) openFailed(err error) error {
	metrics.ReadFailures.WithLabelValues(p.name, "open").Inc()
	return fmt.Errorf("%s: %w: %w", p.name, ErrMediumOpen, err)
}

func (p *pipeline) readFailed(err error) error {
	metrics.ReadFailures.WithLabelValues(p.name, "read").Inc()
	return fmt.Errorf("%s: %w: %w", p.name, ErrMediumRead, err)
}
