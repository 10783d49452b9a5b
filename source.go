package tinyterm

import (
	"context"
	"io"
	"sync"
	"time"
)

// DefaultPollInterval is how long Run idles when no byte is available.
const DefaultPollInterval = time.Millisecond

// Source is the upstream byte channel polled by Run.
//
// Available reports whether ReadByte can return without blocking, either a
// byte or an error.
type Source interface {
	Available() bool
	io.ByteReader
}

// Run polls src and consumes one byte at a time until ctx is done or src
// reports an error. io.EOF ends Run with a nil error.
//
// Bytes are not queued: a source that cannot keep up with the display must
// buffer on its own side.
func (t *Terminal) Run(ctx context.Context, src Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !src.Available() {
			time.Sleep(DefaultPollInterval)
			continue
		}
		c, err := src.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		t.Consume(c)
	}
}

// ChanSource is a Source backed by a buffered channel.
type ChanSource struct {
	C chan byte

	pending byte
	ok      bool
	closed  bool

	done     chan struct{}
	stopOnce sync.Once
}

// NewChanSource returns a source buffering up to size bytes.
func NewChanSource(size int) *ChanSource {
	return &ChanSource{C: make(chan byte, size), done: make(chan struct{})}
}

// NewReaderSource returns a source fed from r by a goroutine. The goroutine
// closes C when r returns an error, including io.EOF, or when Close is
// called. A goroutine blocked inside r.Read only notices Close once that
// Read returns.
func NewReaderSource(r io.Reader, size int) *ChanSource {
	s := NewChanSource(size)
	go func() {
		defer close(s.C)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, c := range buf[:n] {
				select {
				case s.C <- c:
				case <-s.done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return s
}

// Close stops the goroutine feeding a source made by NewReaderSource. Bytes
// already buffered can still be read. It is safe to call more than once.
func (s *ChanSource) Close() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// Available implements Source.
func (s *ChanSource) Available() bool {
	if s.ok || s.closed {
		return true
	}
	select {
	case c, ok := <-s.C:
		if !ok {
			s.closed = true
		} else {
			s.pending, s.ok = c, true
		}
		return true
	default:
		return false
	}
}

// ReadByte implements io.ByteReader. It blocks until a byte arrives or the
// channel is closed.
func (s *ChanSource) ReadByte() (byte, error) {
	if s.ok {
		s.ok = false
		return s.pending, nil
	}
	if s.closed {
		return 0, io.EOF
	}
	c, ok := <-s.C
	if !ok {
		s.closed = true
		return 0, io.EOF
	}
	return c, nil
}
