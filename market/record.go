package market

import (
	"encoding/binary"
	"errors"
	"math"
)

// RecordSize 是结构化回放记录的固定长度（QUOTE 与 TRADE 相同，取较大者）。
const RecordSize = 56

const (
	offKind         = 0
	offReceived     = 8
	offExchangeTime = 16

	offQuoteSide       = 24
	offQuotePrice      = 32
	offQuotePriceFixed = 40
	offQuoteVolume     = 48

	offTradePrice      = 24
	offTradePriceFixed = 32
)

var (
	ErrShortRecord = errors.New("record shorter than RecordSize")
	ErrUnknownKind = errors.New("record has unknown kind")
	ErrUnknownSide = errors.New("record has unknown quote side")
)

// EncodeRecord writes t into dst using the little-endian structural layout.
// dst must be at least RecordSize bytes; unused bytes are zeroed.
func EncodeRecord(dst []byte, t Tick) {
	_ = dst[RecordSize-1]
	clear(dst[:RecordSize])
	binary.LittleEndian.PutUint32(dst[offKind:], uint32(t.kind))
	switch t.kind {
	case KindQuote:
		q := t.quote
		binary.LittleEndian.PutUint64(dst[offReceived:], q.Received)
		binary.LittleEndian.PutUint64(dst[offExchangeTime:], q.ExchangeTime)
		binary.LittleEndian.PutUint32(dst[offQuoteSide:], uint32(q.Side))
		binary.LittleEndian.PutUint64(dst[offQuotePrice:], math.Float64bits(q.Price))
		binary.LittleEndian.PutUint32(dst[offQuotePriceFixed:], uint32(q.PriceFixed))
		binary.LittleEndian.PutUint64(dst[offQuoteVolume:], math.Float64bits(q.Volume))
	case KindTrade:
		tr := t.trade
		binary.LittleEndian.PutUint64(dst[offReceived:], tr.Received)
		binary.LittleEndian.PutUint64(dst[offExchangeTime:], tr.ExchangeTime)
		binary.LittleEndian.PutUint64(dst[offTradePrice:], math.Float64bits(tr.Price))
		binary.LittleEndian.PutUint32(dst[offTradePriceFixed:], uint32(tr.PriceFixed))
	}
}

// AppendRecord appends the encoded record to dst.
func AppendRecord(dst []byte, t Tick) []byte {
	var buf [RecordSize]byte
	EncodeRecord(buf[:], t)
	return append(dst, buf[:]...)
}

// DecodeRecord 解析前 RecordSize 个字节。判别值先于负载校验，
// 长度不足、判别值或方向未知时返回错误，不会越界读取。
func DecodeRecord(src []byte) (Tick, error) {
	if len(src) < RecordSize {
		return Tick{}, ErrShortRecord
	}
	kind := Kind(binary.LittleEndian.Uint32(src[offKind:]))
	if !kind.Valid() {
		return Tick{}, ErrUnknownKind
	}
	switch kind {
	case KindEmpty:
		return Tick{}, nil
	case KindQuote:
		side := Side(binary.LittleEndian.Uint32(src[offQuoteSide:]))
		if !side.Valid() {
			return Tick{}, ErrUnknownSide
		}
		return NewQuoteTick(Quote{
			Received:     binary.LittleEndian.Uint64(src[offReceived:]),
			ExchangeTime: binary.LittleEndian.Uint64(src[offExchangeTime:]),
			Side:         side,
			Price:        math.Float64frombits(binary.LittleEndian.Uint64(src[offQuotePrice:])),
			PriceFixed:   int32(binary.LittleEndian.Uint32(src[offQuotePriceFixed:])),
			Volume:       math.Float64frombits(binary.LittleEndian.Uint64(src[offQuoteVolume:])),
		}), nil
	}
	return NewTradeTick(Trade{
		Received:     binary.LittleEndian.Uint64(src[offReceived:]),
		ExchangeTime: binary.LittleEndian.Uint64(src[offExchangeTime:]),
		Price:        math.Float64frombits(binary.LittleEndian.Uint64(src[offTradePrice:])),
		PriceFixed:   int32(binary.LittleEndian.Uint32(src[offTradePriceFixed:])),
	}), nil
}
