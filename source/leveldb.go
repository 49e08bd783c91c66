package source

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.uber.org/zap"

	"ticker-plant/parser"
)

// LevelDB 按 key 升序回放一个只读打开的 LevelDB 库。
type LevelDB struct {
	pipeline

	Path string
}

func NewLevelDB(name, path string, p parser.Parser, log *zap.Logger) *LevelDB {
	return &LevelDB{
		pipeline: newPipeline(name, p, log),
		Path:     path,
	}
}

// Run 回放整个库。迭代中途出错返回 ErrMediumRead，此前已分发的 tick 仍然有效。
func (s *LevelDB) Run(ctx context.Context) (err error) {
	if err := s.begin(); err != nil {
		return err
	}
	defer func() { s.end(err) }()

	db, err := leveldb.OpenFile(s.Path, &opt.Options{
		ReadOnly:       true,
		ErrorIfMissing: true,
	})
	if err != nil {
		return s.openFailed(err)
	}
	defer db.Close()

	iter := db.NewIterator(nil, &opt.ReadOptions{DontFillCache: true})
	defer iter.Release()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Value 只在下一次 Next 之前有效；consume 是同步的
		if err := s.consume(iter.Value()); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return s.readFailed(err)
	}
	return nil
}
