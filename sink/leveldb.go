package sink

import (
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"ticker-plant/market"
)

// LevelDB 以大端序号为 key 追加结构记录，ldb 源按 key 升序即按写入顺序回放。
type LevelDB struct {
	db  *leveldb.DB
	seq uint64
	key [8]byte
	buf [market.RecordSize]byte
}

// OpenLevelDB 打开或创建库，序号从已有最大 key 之后继续。
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open ldb sink: %w", err)
	}
	s := &LevelDB{db: db}

	iter := db.NewIterator(nil, nil)
	if iter.Last() && len(iter.Key()) == len(s.key) {
		s.seq = binary.BigEndian.Uint64(iter.Key())
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scan ldb sink: %w", err)
	}
	return s, nil
}

// Seq returns the key of the last written record.
func (s *LevelDB) Seq() uint64 { return s.seq }

func (s *LevelDB) OnTick(t market.Tick) error {
	binary.BigEndian.PutUint64(s.key[:], s.seq+1)
	market.EncodeRecord(s.buf[:], t)
	if err := s.db.Put(s.key[:], s.buf[:], nil); err != nil {
		return fmt.Errorf("put ldb record %d: %w", s.seq+1, err)
	}
	s.seq++
	return nil
}

func (s *LevelDB) Close() error { return s.db.Close() }
