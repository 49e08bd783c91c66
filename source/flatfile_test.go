package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticker-plant/dispatch"
	"ticker-plant/market"
)

func quoteTick(price float64, fixed int32, vol float64) market.Tick {
	return market.NewQuoteTick(market.Quote{
		Received:     1_700_000_000_000_100,
		ExchangeTime: 1_700_000_000_000_000,
		Side:         market.Bid,
		Price:        price,
		PriceFixed:   fixed,
		Volume:       vol,
	})
}

func tradeTick(price float64, fixed int32) market.Tick {
	return market.NewTradeTick(market.Trade{
		Received:     1_700_000_000_000_200,
		ExchangeTime: 1_700_000_000_000_150,
		Price:        price,
		PriceFixed:   fixed,
	})
}

func writeFlat(t *testing.T, ticks ...market.Tick) string {
	t.Helper()
	var buf []byte
	for _, tk := range ticks {
		buf = market.AppendRecord(buf, tk)
	}
	path := filepath.Join(t.TempDir(), "ticks.flat")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

type recorder struct {
	ticks []market.Tick
}

func (r *recorder) OnTick(t market.Tick) error {
	r.ticks = append(r.ticks, t)
	return nil
}

func TestFlatFileReplaysInOrderAndSkipsEmpty(t *testing.T) {
	path := writeFlat(t,
		market.Tick{},
		quoteTick(100.5, 10050, 2.0),
		tradeTick(101.0, 10100),
	)

	src := NewFlatFile("flat", path, nil)
	rec := &recorder{}
	src.AddHandler(rec)

	require.NoError(t, src.Run(context.Background()))
	require.Len(t, rec.ticks, 2)

	q := rec.ticks[0].Quote()
	assert.Equal(t, 100.5, q.Price)
	assert.Equal(t, int32(10050), q.PriceFixed)
	assert.Equal(t, 2.0, q.Volume)

	tr := rec.ticks[1].Trade()
	assert.Equal(t, 101.0, tr.Price)
	assert.Equal(t, int32(10100), tr.PriceFixed)

	assert.Equal(t, Stats{Read: 3, Skipped: 1, Dispatched: 2}, src.Stats())
}

func TestFlatFileHandlerFailureStopsRun(t *testing.T) {
	path := writeFlat(t, tradeTick(1, 100), tradeTick(2, 200), tradeTick(3, 300))

	src := NewFlatFile("flat", path, nil)
	counted := 0
	src.AddHandler(dispatch.HandlerFunc(func(market.Tick) error {
		counted++
		return nil
	}))
	calls := 0
	boom := errors.New("disk full")
	src.AddHandler(dispatch.HandlerFunc(func(market.Tick) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}))

	err := src.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var herr *dispatch.HandlerError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 1, herr.Index)
	assert.Equal(t, 2.0, herr.Tick.Trade().Price)
	assert.Equal(t, 2, counted)
}

func TestFlatFileTruncatedTail(t *testing.T) {
	path := writeFlat(t, tradeTick(1, 100), tradeTick(2, 200))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-10], 0o644))

	src := NewFlatFile("flat", path, nil)
	rec := &recorder{}
	src.AddHandler(rec)

	err = src.Run(context.Background())
	assert.ErrorIs(t, err, ErrMediumRead)
	require.Len(t, rec.ticks, 1)
	assert.Equal(t, 1.0, rec.ticks[0].Trade().Price)
}

func TestFlatFileMissing(t *testing.T) {
	src := NewFlatFile("flat", filepath.Join(t.TempDir(), "nope.flat"), nil)
	err := src.Run(context.Background())
	assert.ErrorIs(t, err, ErrMediumOpen)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFlatFileEmptyFile(t *testing.T) {
	src := NewFlatFile("flat", writeFlat(t), nil)
	rec := &recorder{}
	src.AddHandler(rec)
	require.NoError(t, src.Run(context.Background()))
	assert.Empty(t, rec.ticks)
}

func TestRegisterDuringRunPanics(t *testing.T) {
	src := NewFlatFile("flat", writeFlat(t, tradeTick(1, 100)), nil)
	src.AddHandler(dispatch.HandlerFunc(func(market.Tick) error {
		assert.Panics(t, func() { src.AddHandler(&recorder{}) })
		return nil
	}))
	require.NoError(t, src.Run(context.Background()))
}

func TestFlatFileStopsOnCancelledContext(t *testing.T) {
	src := NewFlatFile("flat", writeFlat(t, tradeTick(1, 100)), nil)
	rec := &recorder{}
	src.AddHandler(rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, src.Run(ctx), context.Canceled)
	assert.Empty(t, rec.ticks)
}
