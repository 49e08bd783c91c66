package source

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"ticker-plant/market"
	"ticker-plant/parser"
)

func writeLevelDB(t *testing.T, kv map[string][]byte) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "ticks.ldb")
	db, err := leveldb.OpenFile(dir, nil)
	require.NoError(t, err)
	for k, v := range kv {
		require.NoError(t, db.Put([]byte(k), v, nil))
	}
	require.NoError(t, db.Close())
	return dir
}

func record(t market.Tick) []byte { return market.AppendRecord(nil, t) }

func TestLevelDBReplaysInKeyOrder(t *testing.T) {
	dir := writeLevelDB(t, map[string][]byte{
		"k3": record(tradeTick(3, 300)),
		"k1": record(tradeTick(1, 100)),
		"k0": []byte("not a record"),
		"k2": record(quoteTick(2, 200, 5)),
	})

	src := NewLevelDB("ldb", dir, parser.Flat{}, nil)
	rec := &recorder{}
	src.AddHandler(rec)

	require.NoError(t, src.Run(context.Background()))
	require.Len(t, rec.ticks, 3)
	assert.Equal(t, 1.0, rec.ticks[0].Trade().Price)
	assert.Equal(t, 2.0, rec.ticks[1].Quote().Price)
	assert.Equal(t, 3.0, rec.ticks[2].Trade().Price)
	assert.Equal(t, Stats{Read: 4, Skipped: 1, Dispatched: 3}, src.Stats())
}

func TestLevelDBWithExchangeParser(t *testing.T) {
	dir := writeLevelDB(t, map[string][]byte{
		"0001": []byte(`{"op":"private","private":"trade","trade":{"type":"trade","date":1366299428,"tid":"1366299428171367","price_int":"12530000","price_currency":"USD","primary":"Y"}}`),
		"0002": []byte(`{"op":"remark","message":"hello"}`),
	})

	src := NewLevelDB("ldb_mtgox", dir, parser.NewMtGox(), nil)
	rec := &recorder{}
	src.AddHandler(rec)

	require.NoError(t, src.Run(context.Background()))
	require.Len(t, rec.ticks, 1)
	assert.Equal(t, int32(12530000), rec.ticks[0].Trade().PriceFixed)
}

func TestLevelDBMissingStore(t *testing.T) {
	src := NewLevelDB("ldb", filepath.Join(t.TempDir(), "missing"), parser.Flat{}, nil)
	assert.ErrorIs(t, src.Run(context.Background()), ErrMediumOpen)
}

func TestLevelDBRunTwice(t *testing.T) {
	dir := writeLevelDB(t, map[string][]byte{"a": record(tradeTick(1, 100))})
	src := NewLevelDB("ldb", dir, parser.Flat{}, nil)
	rec := &recorder{}
	src.AddHandler(rec)

	require.NoError(t, src.Run(context.Background()))
	require.NoError(t, src.Run(context.Background()))
	assert.Len(t, rec.ticks, 2)
	assert.Equal(t, uint64(2), src.Stats().Dispatched)
}

func TestLevelDBCorruptBlockIsReadFailure(t *testing.T) {
	const n = 4000
	dir := filepath.Join(t.TempDir(), "corrupt.ldb")
	db, err := leveldb.OpenFile(dir, nil)
	require.NoError(t, err)
	var key [8]byte
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint64(key[:], uint64(i))
		require.NoError(t, db.Put(key[:], record(tradeTick(float64(i), int32(i))), nil))
	}
	// 压实到 table 文件，数据不再只存在于 journal
	require.NoError(t, db.CompactRange(util.Range{}))
	require.NoError(t, db.Close())

	tables, err := filepath.Glob(filepath.Join(dir, "*.ldb"))
	require.NoError(t, err)
	require.NotEmpty(t, tables)
	f, err := os.OpenFile(tables[0], os.O_RDWR, 0)
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	junk := make([]byte, 32)
	for i := range junk {
		junk[i] = 0xff
	}
	_, err = f.WriteAt(junk, info.Size()/2)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	src := NewLevelDB("ldb", dir, parser.Flat{}, nil)
	rec := &recorder{}
	src.AddHandler(rec)

	err = src.Run(context.Background())
	require.ErrorIs(t, err, ErrMediumRead)
	require.NotEmpty(t, rec.ticks)
	assert.Less(t, len(rec.ticks), n)
	for i, tk := range rec.ticks {
		assert.Equal(t, float64(i), tk.Trade().Price)
	}
	assert.Equal(t, uint64(len(rec.ticks)), src.Stats().Dispatched)
}
