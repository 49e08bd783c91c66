// Package parser turns raw medium payloads into market ticks.
package parser

import (
	"fmt"
	"strings"

	"ticker-plant/market"
)

// Parser 把一条原始消息解码为零或一个 Tick。
// 返回 false 表示跳过（格式错误、截断或有意忽略的消息类型），不是错误。
type Parser interface {
	Parse(raw []byte) (market.Tick, bool)
}

// Func adapts a plain function to Parser.
type Func func(raw []byte) (market.Tick, bool)

func (f Func) Parse(raw []byte) (market.Tick, bool) { return f(raw) }

// Clock 返回本地接收时间（微秒）。
type Clock func() uint64

// ByName 按名称创建解析器：flat / mtgox / binance。
func ByName(name string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "flat":
		return Flat{}, nil
	case "mtgox":
		return NewMtGox(), nil
	case "binance":
		return NewBinance(), nil
	default:
		return nil, fmt.Errorf("unknown parser %q", name)
	}
}
