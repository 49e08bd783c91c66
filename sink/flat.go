package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"ticker-plant/market"
)

// FlatFile 把 tick 编码为定长结构记录顺序写入，可由 flat 源原样回放。
type FlatFile struct {
	w      *bufio.Writer
	closer io.Closer
	buf    [market.RecordSize]byte
}

// OpenFlatFile 截断并创建 path；"-" 写到标准输出。
func OpenFlatFile(path string) (*FlatFile, error) {
	if path == "-" {
		return &FlatFile{w: bufio.NewWriter(os.Stdout), closer: io.NopCloser(os.Stdout)}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open flat sink: %w", err)
	}
	return &FlatFile{w: bufio.NewWriter(f), closer: f}, nil
}

func (s *FlatFile) OnTick(t market.Tick) error {
	market.EncodeRecord(s.buf[:], t)
	if _, err := s.w.Write(s.buf[:]); err != nil {
		return fmt.Errorf("write flat record: %w", err)
	}
	return nil
}

func (s *FlatFile) Close() error {
	if err := s.w.Flush(); err != nil {
		_ = s.closer.Close()
		return fmt.Errorf("flush flat sink: %w", err)
	}
	return s.closer.Close()
}
