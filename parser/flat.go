package parser

import "ticker-plant/market"

// Flat 解析本地写出的结构化回放记录。
// 长度必须正好是 market.RecordSize；EMPTY 记录被跳过。
type Flat struct{}

func (Flat) Parse(raw []byte) (market.Tick, bool) {
	if len(raw) != market.RecordSize {
		return market.Tick{}, false
	}
	tick, err := market.DecodeRecord(raw)
	if err != nil || tick.IsEmpty() {
		return market.Tick{}, false
	}
	return tick, true
}
