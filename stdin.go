package spie

import (
	"io"
	"os"
	"sync"

	"github.com/brandonbloom/spie/input"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

type fileStdin struct {
	file *os.File
}

// NewStdin returns the input source reading from file.
func NewStdin(file *os.File) input.StdinSource {
	return &fileStdin{file: file}
}

func (s *fileStdin) IsInteractive() bool {
	fd := s.file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (s *fileStdin) ReadAll() ([]byte, error) {
	b, err := io.ReadAll(s.file)
	if err != nil {
		return nil, errors.Wrap(err, "reading stdin")
	}
	return b, nil
}

// onceStdin reads the underlying source at most once, so the raw body and
// every "@-" item see the same bytes.
type onceStdin struct {
	src  input.StdinSource
	once sync.Once
	data []byte
	err  error
}

func (s *onceStdin) IsInteractive() bool {
	return s.src.IsInteractive()
}

func (s *onceStdin) ReadAll() ([]byte, error) {
	s.once.Do(func() {
		s.data, s.err = s.src.ReadAll()
	})
	return s.data, s.err
}
