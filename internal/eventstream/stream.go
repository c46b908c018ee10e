package eventstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/mrzor/trace-model/internal/traceevent"
)

var (
	// ErrUnsupportedFormat is returned when a capture is neither a JSON array
	// nor a JSON object.
	ErrUnsupportedFormat = errors.New("unsupported trace format")
	// ErrEmptyCapture is returned when a capture holds no JSON value at all.
	ErrEmptyCapture = errors.New("empty capture")
)

// Handler receives decoded events.
type Handler interface {
	AddEvent(ev *traceevent.Event)
}

// Header holds the capture-level fields of the JSON Object Format.
type Header struct {
	DisplayTimeUnit string
	OtherData       map[string]any
	Metadata        map[string]any
	// Truncated is set when a JSON Array capture ended without its closing bracket.
	Truncated bool
	// Skipped counts well-formed records whose fields have unexpected types.
	Skipped int
}

// Stream decodes events from a reader and dispatches them to a handler.
type Stream struct {
	dec     *json.Decoder
	handler Handler
	header  Header
	count   int
}

// New creates a new Stream reading from r.
func New(r io.Reader, handler Handler) *Stream {
	return &Stream{
		dec:     json.NewDecoder(r),
		handler: handler,
	}
}

// Header returns the capture header. Only meaningful once Run has returned.
func (s *Stream) Header() Header {
	return s.header
}

// Count returns the number of events dispatched so far.
func (s *Stream) Count() int {
	return s.count
}

// Run decodes the whole capture, dispatching events in order. It stops early
// when ctx is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyCapture
		}
		return fmt.Errorf("reading capture: %w", err)
	}

	switch tok {
	case json.Delim('['):
		return s.readEvents(ctx, true)
	case json.Delim('{'):
		return s.readObject(ctx)
	default:
		return fmt.Errorf("%w: starts with %v", ErrUnsupportedFormat, tok)
	}
}

// readObject walks the keys of a JSON Object Format capture.
func (s *Stream) readObject(ctx context.Context) error {
	for s.dec.More() {
		tok, err := s.dec.Token()
		if err != nil {
			return fmt.Errorf("reading object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected token %v", ErrUnsupportedFormat, tok)
		}

		switch key {
		case "traceEvents":
			tok, err := s.dec.Token()
			if err != nil {
				return fmt.Errorf("reading traceEvents: %w", err)
			}
			if tok != json.Delim('[') {
				return fmt.Errorf("%w: traceEvents is not an array", ErrUnsupportedFormat)
			}
			if err := s.readEvents(ctx, false); err != nil {
				return err
			}
		case "displayTimeUnit":
			if err := s.dec.Decode(&s.header.DisplayTimeUnit); err != nil {
				return fmt.Errorf("decoding displayTimeUnit: %w", err)
			}
		case "otherData":
			if err := s.dec.Decode(&s.header.OtherData); err != nil {
				return fmt.Errorf("decoding otherData: %w", err)
			}
		case "metadata":
			if err := s.dec.Decode(&s.header.Metadata); err != nil {
				return fmt.Errorf("decoding metadata: %w", err)
			}
		default:
			var skip json.RawMessage
			if err := s.dec.Decode(&skip); err != nil {
				return fmt.Errorf("skipping %q: %w", key, err)
			}
		}
	}

	if _, err := s.dec.Token(); err != nil {
		return fmt.Errorf("reading end of capture: %w", err)
	}
	return nil
}

// readEvents decodes array elements until the closing bracket. When
// allowTruncation is set, hitting EOF instead of the bracket ends the capture
// cleanly and drops any partially written trailing event.
func (s *Stream) readEvents(ctx context.Context, allowTruncation bool) error {
	for s.dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev := new(traceevent.Event)
		if err := s.dec.Decode(ev); err != nil {
			if allowTruncation && isEOF(err) {
				s.header.Truncated = true
				return nil
			}
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				// The decoder has consumed the whole record.
				log.WithFields(log.Fields{
					"event": s.count + s.header.Skipped,
					"field": typeErr.Field,
				}).Warnf("skipping malformed event: %v", err)
				s.header.Skipped++
				continue
			}
			return fmt.Errorf("decoding event %d: %w", s.count+s.header.Skipped, err)
		}

		s.handler.AddEvent(ev)
		s.count++
	}

	if _, err := s.dec.Token(); err != nil {
		if allowTruncation && isEOF(err) {
			s.header.Truncated = true
			return nil
		}
		return fmt.Errorf("reading end of event array: %w", err)
	}
	return nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
