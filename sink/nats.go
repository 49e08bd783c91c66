package sink

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/encoding/json"

	"ticker-plant/market"
)

// tickMessage 是发布到总线上的 JSON 形态。
type tickMessage struct {
	Kind         string  `json:"kind"`
	Received     uint64  `json:"received"`
	ExchangeTime uint64  `json:"exchangeTime"`
	Side         string  `json:"side,omitempty"`
	Price        float64 `json:"price"`
	PriceFixed   int32   `json:"priceFixed"`
	Volume       float64 `json:"volume,omitempty"`
}

func newTickMessage(t market.Tick) tickMessage {
	m := tickMessage{
		Kind:         strings.ToLower(t.Kind().String()),
		Received:     t.Received(),
		ExchangeTime: t.ExchangeTime(),
	}
	switch t.Kind() {
	case market.KindQuote:
		q := t.Quote()
		m.Side, m.Price, m.PriceFixed, m.Volume = strings.ToLower(q.Side.String()), q.Price, q.PriceFixed, q.Volume
	case market.KindTrade:
		tr := t.Trade()
		m.Price, m.PriceFixed = tr.Price, tr.PriceFixed
	}
	return m
}

// subjectFor 按 tick 类型拼接主题：<prefix>.quote / <prefix>.trade。
func subjectFor(prefix string, k market.Kind) string {
	return prefix + "." + strings.ToLower(k.String())
}

// NATS 把 tick 以 JSON 发布到 NATS。Publish 只写入客户端缓冲，不等待服务端确认。
type NATS struct {
	nc     *nats.Conn
	prefix string
}

func NewNATS(url, prefix string, opts ...nats.Option) (*NATS, error) {
	opts = append([]nats.Option{
		nats.Name("ticker-plant"),
		nats.Timeout(5 * time.Second),
	}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATS{nc: nc, prefix: prefix}, nil
}

func (s *NATS) OnTick(t market.Tick) error {
	payload, err := json.Marshal(newTickMessage(t))
	if err != nil {
		return fmt.Errorf("encode tick: %w", err)
	}
	if err := s.nc.Publish(subjectFor(s.prefix, t.Kind()), payload); err != nil {
		return fmt.Errorf("publish tick: %w", err)
	}
	return nil
}

// Close 先 Drain 把缓冲中的消息发出去再断开。
func (s *NATS) Close() error {
	if s.nc == nil {
		return nil
	}
	err := s.nc.Drain()
	s.nc.Close()
	return err
}
