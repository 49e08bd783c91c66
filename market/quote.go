package market

import "fmt"

// Side 报价所在的盘口方向。数值与回放记录中的编码一致。
type Side uint32

const (
	Ask Side = iota
	Bid
)

func (s Side) String() string {
	switch s {
	case Ask:
		return "ASK"
	case Bid:
		return "BID"
	default:
		return fmt.Sprintf("Side(%d)", uint32(s))
	}
}

// Valid reports whether s is one of Ask/Bid.
func (s Side) Valid() bool {
	return s == Ask || s == Bid
}

// Quote 表示某一价位的一次盘口更新。
//
// Volume 是更新之后该价位上的挂单总量（累计值），不是本次变动的增量；
// 解析器必须从交易所的 total/level 字段取值。
type Quote struct {
	Received     uint64 // 本地接收时间，微秒
	ExchangeTime uint64 // 交易所时间，微秒
	Side         Side
	Price        float64
	PriceFixed   int32
	Volume       float64
}
