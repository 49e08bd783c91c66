package sink

import (
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"ticker-plant/market"
)

type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	Source      string

	BatchSize     uint
	FlushInterval time.Duration
}

// Influx 把 tick 作为时序点异步批量写入 InfluxDB，时间戳取交易所时间。
type Influx struct {
	client      influxdb2.Client
	write       api.WriteAPI
	measurement string
	source      string
	done        chan struct{}
}

func NewInflux(cfg InfluxConfig, log *zap.Logger) *Influx {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2000
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.Measurement == "" {
		cfg.Measurement = "ticks"
	}

	opt := influxdb2.DefaultOptions().
		SetBatchSize(cfg.BatchSize).
		SetFlushInterval(uint(cfg.FlushInterval.Milliseconds()))
	c := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opt)
	w := c.WriteAPI(cfg.Org, cfg.Bucket)

	s := &Influx{client: c, write: w, measurement: cfg.Measurement, source: cfg.Source, done: make(chan struct{})}
	// Errors() 必须在第一次写入前取得，并持续消费，否则异步写入失败会阻塞
	errs := w.Errors()
	go func() {
		defer close(s.done)
		for err := range errs {
			log.Warn("influx write failed", zap.Error(err))
		}
	}()
	return s
}

func (s *Influx) OnTick(t market.Tick) error {
	tags := map[string]string{
		"kind":   strings.ToLower(t.Kind().String()),
		"source": s.source,
	}
	fields := map[string]interface{}{
		"lag_us": t.Lag(),
	}
	switch t.Kind() {
	case market.KindQuote:
		q := t.Quote()
		tags["side"] = strings.ToLower(q.Side.String())
		fields["price"] = q.Price
		fields["price_fixed"] = q.PriceFixed
		fields["volume"] = q.Volume
	case market.KindTrade:
		tr := t.Trade()
		fields["price"] = tr.Price
		fields["price_fixed"] = tr.PriceFixed
	default:
		return nil
	}
	s.write.WritePoint(write.NewPoint(s.measurement, tags, fields, time.UnixMicro(int64(t.ExchangeTime()))))
	return nil
}

// Close 刷新缓冲并关闭客户端。
func (s *Influx) Close() error {
	s.client.Close()
	select {
	case <-s.done:
	case <-time.After(time.Second):
	}
	return nil
}
