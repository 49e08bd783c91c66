package source

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ticker-plant/metrics"
	"ticker-plant/parser"
)

const (
	defaultReadLimit = 1 << 20
	defaultWriteWait = 10 * time.Second
)

// WebSocket 实时行情源：每读一帧就同步走完 parser 和全部 handler，再读下一帧。
type WebSocket struct {
	pipeline

	URL string
	// Subscribe 连接建立后依次发送的文本帧（例如订阅请求）。
	Subscribe [][]byte
	ReadLimit int64
	// PongWait > 0 时启用读超时，收到 pong 或任意数据帧都会续期。
	PongWait time.Duration
	Dialer   *websocket.Dialer
}

// NewWebSocket 创建实时源，name 用作日志和指标标签。
func NewWebSocket(name, url string, p parser.Parser, log *zap.Logger) *WebSocket {
	return &WebSocket{
		pipeline:  newPipeline(name, p, log),
		URL:       url,
		ReadLimit: defaultReadLimit,
		Dialer:    websocket.DefaultDialer,
	}
}

// Run 连接并读取直到对端正常关闭（返回 nil）、ctx 取消（返回 ctx.Err()）、
// 读失败（ErrMediumRead）或 handler 失败。
func (s *WebSocket) Run(ctx context.Context) (err error) {
	if err := s.begin(); err != nil {
		return err
	}
	defer func() { s.end(err) }()

	header := http.Header{}
	header.Set("Origin", s.URL)
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, header)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.openFailed(err)
	}
	defer conn.Close()

	// 取消时关闭连接，阻塞中的 ReadMessage 会立即返回
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	metrics.FeedConnected.WithLabelValues(s.name).Set(1)
	defer metrics.FeedConnected.WithLabelValues(s.name).Set(0)
	s.log.Info("feed connected", zap.String("url", s.URL))

	if s.ReadLimit > 0 {
		conn.SetReadLimit(s.ReadLimit)
	}
	if s.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(s.PongWait))
		})
	}

	for _, frame := range s.Subscribe {
		_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return s.openFailed(err)
		}
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("feed closed by peer", zap.Error(err))
				return nil
			}
			return s.readFailed(err)
		}
		if s.PongWait > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.PongWait))
		}
		if err := s.consume(msg); err != nil {
			s.closeGracefully(conn)
			return err
		}
	}
}

func (s *WebSocket) closeGracefully(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		s.log.Debug("close frame failed", zap.Error(err))
	}
}
