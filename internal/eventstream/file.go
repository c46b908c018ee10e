package eventstream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mrzor/trace-model/internal/traceevent"
)

var gzipMagic = []byte{0x1f, 0x8b}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var firstErr error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewReader wraps r, transparently decompressing gzip input.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peeking capture header: %w", err)
	}
	if len(magic) == len(gzipMagic) && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr}}, nil
	}
	return io.NopCloser(br), nil
}

// Open opens a capture file for decoding.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close() //nolint:errcheck // Read-only file, error path
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &readCloser{Reader: r, closers: []io.Closer{r, f}}, nil
}

// Capture is a fully decoded capture file.
type Capture struct {
	Path   string
	Header Header
	Events []*traceevent.Event
}

// AddEvent implements Handler by collecting events.
func (c *Capture) AddEvent(ev *traceevent.Event) {
	c.Events = append(c.Events, ev)
}

// ReadCapture decodes the capture at path.
func ReadCapture(ctx context.Context, path string) (*Capture, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close() //nolint:errcheck // Read-only file, defer cleanup
	}()

	capture := &Capture{Path: path}
	stream := New(rc, capture)
	if err := stream.Run(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	capture.Header = stream.Header()

	entry := log.WithFields(log.Fields{
		"path":    path,
		"events":  stream.Count(),
		"skipped": capture.Header.Skipped,
	})
	if capture.Header.Truncated {
		entry.Warn("capture is truncated")
	}
	entry.Debug("decoded capture")

	return capture, nil
}

// LoadFiles decodes the given captures concurrently. Captures are returned in
// the order of paths so that feeding them stays deterministic.
func LoadFiles(ctx context.Context, paths []string) ([]*Capture, error) {
	captures := make([]*Capture, len(paths))
	g, ctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			capture, err := ReadCapture(ctx, path)
			if err != nil {
				return err
			}
			captures[i] = capture
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return captures, nil
}
