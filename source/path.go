package source

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ticker-plant/parser"
)

// Type 源类型，路径写作 "type:location"。
type Type string

const (
	TypeLDB        Type = "ldb"
	TypeFlat       Type = "flat"
	TypeWSMtGox    Type = "ws_mtgox"
	TypeLDBMtGox   Type = "ldb_mtgox"
	TypeWSBinance  Type = "ws_binance"
	TypeLDBBinance Type = "ldb_binance"
)

// DefaultPath 未指定源时使用的实时行情。
const DefaultPath = "ws_mtgox:ws://websocket.mtgox.com/mtgox"

var (
	ErrInvalidPath = errors.New("invalid source path")
	ErrUnknownType = errors.New("unknown source type")
)

// Types lists every supported source type.
func Types() []Type {
	return []Type{TypeLDB, TypeFlat, TypeWSMtGox, TypeLDBMtGox, TypeWSBinance, TypeLDBBinance}
}

// Path 是解析后的源描述。
type Path struct {
	Type     Type
	Location string
}

func (p Path) String() string { return string(p.Type) + ":" + p.Location }

// ParsePath 按第一个冒号拆分 "type:location"，location 中可以再含冒号（如 ws://）。
func ParsePath(s string) (Path, error) {
	typ, loc, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || typ == "" || loc == "" {
		return Path{}, fmt.Errorf("%w %q: want type:location", ErrInvalidPath, s)
	}
	p := Path{Type: Type(strings.ToLower(typ)), Location: loc}
	for _, t := range Types() {
		if p.Type == t {
			return p, nil
		}
	}
	return Path{}, fmt.Errorf("%w %q", ErrUnknownType, typ)
}

// Options 构造源时的可选参数，零值可用。
type Options struct {
	Logger *zap.Logger
	// 以下只作用于实时源
	PongWait  time.Duration
	ReadLimit int64
	Subscribe [][]byte
}

// New 按路径类型组装介质与解析器。
func New(p Path, opts Options) (Source, error) {
	name := string(p.Type)
	switch p.Type {
	case TypeFlat:
		return NewFlatFile(name, p.Location, opts.Logger), nil
	case TypeLDB:
		return NewLevelDB(name, p.Location, parser.Flat{}, opts.Logger), nil
	case TypeLDBMtGox:
		return NewLevelDB(name, p.Location, parser.NewMtGox(), opts.Logger), nil
	case TypeLDBBinance:
		return NewLevelDB(name, p.Location, parser.NewBinance(), opts.Logger), nil
	case TypeWSMtGox:
		return newLive(name, p.Location, parser.NewMtGox(), opts), nil
	case TypeWSBinance:
		return newLive(name, p.Location, parser.NewBinance(), opts), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, p.Type)
	}
}

func newLive(name, url string, p parser.Parser, opts Options) *WebSocket {
	ws := NewWebSocket(name, url, p, opts.Logger)
	ws.PongWait = opts.PongWait
	if opts.ReadLimit > 0 {
		ws.ReadLimit = opts.ReadLimit
	}
	ws.Subscribe = opts.Subscribe
	return ws
}
