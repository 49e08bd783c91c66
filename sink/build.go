package sink

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"ticker-plant/config"
	"ticker-plant/infrastructure/logger"
)

// Build 按配置创建一个记录端，only 非空时包一层过滤。
func Build(sc config.SinkConfig, app config.AppConfig, sourceName string, log *logger.Logger) (Sink, error) {
	if log == nil {
		log = logger.Wrap(nil)
	}
	var (
		s   Sink
		err error
	)
	switch sc.Type {
	case config.SinkFlat:
		s, err = OpenFlatFile(sc.Path)
	case config.SinkLDB:
		s, err = OpenLevelDB(sc.Path)
	case config.SinkLog:
		s = NewTickLog(log.Logger.With(zap.String("sink", "log")))
	case config.SinkNATS:
		s, err = NewNATS(app.NATS.URL, sc.Path)
	case config.SinkInflux:
		s = NewInflux(InfluxConfig{
			URL:           app.Influx.URL,
			Token:         app.Influx.Token,
			Org:           app.Influx.Org,
			Bucket:        sc.Path,
			Measurement:   app.Influx.Measurement,
			Source:        sourceName,
			FlushInterval: time.Second,
		}, log.Logger.With(zap.String("sink", "influx")))
	default:
		return nil, fmt.Errorf("unknown sink type %q", sc.Type)
	}
	if err != nil {
		return nil, err
	}
	if pred := predicateFor(sc.Only); pred != nil {
		s = Only(pred, s)
	}
	if err := log.LogEvent("sink_opened", map[string]interface{}{
		"sink": sc.Type,
		"path": sc.Path,
		"only": sc.Only,
	}); err != nil {
		log.Warn("sink event rejected", zap.Error(err))
	}
	return s, nil
}

// BuildAll 创建全部记录端；任一失败时关闭已创建的并返回错误。
func BuildAll(app config.AppConfig, sourceName string, log *logger.Logger) ([]Sink, error) {
	out := make([]Sink, 0, len(app.Sinks))
	for _, sc := range app.Sinks {
		s, err := Build(sc, app, sourceName, log)
		if err != nil {
			CloseAll(out, log)
			return nil, fmt.Errorf("sink %s:%s: %w", sc.Type, sc.Path, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CloseAll 关闭全部记录端，错误只记日志。
func CloseAll(sinks []Sink, log *logger.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil && log != nil {
			log.Error("sink close failed", zap.Error(err))
		}
	}
}
