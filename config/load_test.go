package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticker-plant/source"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
source: ldb_mtgox:/data/mtgox.ldb
metricsAddr: ":9102"
log:
  level: debug
  outputs: [stderr]
  format: console
progress:
  every: 500
sinks:
  - type: flat
    path: /data/replay.flat
  - type: ldb
    path: /data/trades.ldb
    only: trades
  - type: nats
    path: ticks.mtgox
nats:
  url: nats://bus:4222
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ldb_mtgox:/data/mtgox.ldb", cfg.Source)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint64(500), cfg.Progress.Every)
	require.Len(t, cfg.Sinks, 3)
	assert.Equal(t, SinkConfig{Type: "ldb", Path: "/data/trades.ldb", Only: "trades"}, cfg.Sinks[1])
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, "ticks", cfg.Influx.Measurement)
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "metricsAddr: \":9102\"\n"))
	require.NoError(t, err)
	assert.Equal(t, source.DefaultPath, cfg.Source)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
source: flat:/data/a.flat
`)
	t.Setenv("TP_SOURCE", "ws_binance:wss://stream.binance.com:9443/ws/btcusdt@aggTrade")
	t.Setenv("TP_LOG_LEVEL", "warn")
	t.Setenv("TP_INFLUX_TOKEN", "secret")
	cfg, err := LoadWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "ws_binance:wss://stream.binance.com:9443/ws/btcusdt@aggTrade", cfg.Source)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "secret", cfg.Influx.Token)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	bad := cfg
	bad.Source = "csv:/tmp/x"
	assert.ErrorIs(t, Validate(bad), source.ErrUnknownType)

	bad = cfg
	bad.Log.Level = "chatty"
	assert.Error(t, Validate(bad))

	bad = cfg
	bad.Sinks = []SinkConfig{{Type: "kafka", Path: "x"}}
	var inv ErrInvalid
	assert.True(t, errors.As(Validate(bad), &inv))

	bad = cfg
	bad.Sinks = []SinkConfig{{Type: "influx", Path: "bucket"}}
	assert.Error(t, Validate(bad))
}

func TestParseSink(t *testing.T) {
	cases := []struct {
		in   string
		want SinkConfig
	}{
		{"flat:/tmp/out.flat", SinkConfig{Type: "flat", Path: "/tmp/out.flat"}},
		{"ldb:/tmp/trades.ldb:trades", SinkConfig{Type: "ldb", Path: "/tmp/trades.ldb", Only: "trades"}},
		{"log", SinkConfig{Type: "log"}},
		{"log::quotes", SinkConfig{Type: "log", Only: "quotes"}},
		{"NATS:ticks.btc", SinkConfig{Type: "nats", Path: "ticks.btc"}},
	}
	for _, c := range cases {
		got, err := ParseSink(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, in := range []string{"flat", "raw:/tmp/x", "ldb:"} {
		_, err := ParseSink(in)
		assert.Error(t, err, in)
	}
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	_, err := Load(writeTempConfig(t, "\n"))
	assert.Error(t, err)
}
