package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"ticker-plant/market"
	"ticker-plant/parser"
)

const defaultFlatBuffer = 64 * 1024

// FlatFile 回放由定长结构记录拼接而成的文件，解析器固定为 parser.Flat。
type FlatFile struct {
	pipeline

	Path       string
	BufferSize int
}

func NewFlatFile(name, path string, log *zap.Logger) *FlatFile {
	return &FlatFile{
		pipeline:   newPipeline(name, parser.Flat{}, log),
		Path:       path,
		BufferSize: defaultFlatBuffer,
	}
}

// Run 逐条读取 market.RecordSize 字节直到 EOF。尾部不完整的记录返回 ErrMediumRead。
func (s *FlatFile) Run(ctx context.Context) (err error) {
	if err := s.begin(); err != nil {
		return err
	}
	defer func() { s.end(err) }()

	f, err := os.Open(s.Path)
	if err != nil {
		return s.openFailed(err)
	}
	defer f.Close()

	size := s.BufferSize
	if size < market.RecordSize {
		size = defaultFlatBuffer
	}
	r := bufio.NewReaderSize(f, size)
	buf := make([]byte, market.RecordSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(r, buf)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return s.readFailed(fmt.Errorf("truncated record: %d of %d bytes", n, market.RecordSize))
		case err != nil:
			return s.readFailed(err)
		}
		if err := s.consume(buf); err != nil {
			return err
		}
	}
}
