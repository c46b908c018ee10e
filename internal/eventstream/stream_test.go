package eventstream

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/trace-model/internal/traceevent"
)

const arrayCapture = `[
{"name":"num_cpus","ph":"M","pid":0,"tid":0,"args":{"number":8}},
{"name":"process_name","ph":"M","pid":1,"tid":0,"args":{"name":"Browser"}},
{"name":"RunTask","cat":"toplevel","ph":"X","pid":1,"tid":1,"ts":100,"dur":50}
]`

const objectCapture = `{
  "displayTimeUnit": "ns",
  "stackFrames": {"1": {"name": "main"}},
  "traceEvents": [
    {"name":"thread_name","ph":"M","pid":1,"tid":1,"args":{"name":"CrRendererMain"}},
    {"name":"Paint","ph":"B","pid":1,"tid":1,"ts":10},
    {"name":"Paint","ph":"E","pid":1,"tid":1,"ts":20}
  ],
  "otherData": {"version": "Chrome 120"},
  "samples": []
}`

func run(t *testing.T, input string) (*Capture, *Stream, error) {
	t.Helper()
	capture := &Capture{}
	stream := New(strings.NewReader(input), capture)
	err := stream.Run(context.Background())
	return capture, stream, err
}

func TestStream_ArrayFormat(t *testing.T) {
	capture, stream, err := run(t, arrayCapture)
	require.NoError(t, err)

	require.Len(t, capture.Events, 3)
	assert.Equal(t, 3, stream.Count())
	assert.Equal(t, "num_cpus", capture.Events[0].Name)
	assert.Equal(t, traceevent.PhaseComplete, capture.Events[2].Phase)
	assert.Equal(t, 150.0, capture.Events[2].End())
	assert.False(t, stream.Header().Truncated)
}

func TestStream_ObjectFormat(t *testing.T) {
	capture, stream, err := run(t, objectCapture)
	require.NoError(t, err)

	require.Len(t, capture.Events, 3)
	assert.Equal(t, traceevent.PhaseBegin, capture.Events[1].Phase)
	assert.Equal(t, "ns", stream.Header().DisplayTimeUnit)
	assert.Equal(t, "Chrome 120", stream.Header().OtherData["version"])
}

func TestStream_TruncatedArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"missing bracket", `[{"name":"a","ph":"X","pid":1,"tid":1,"ts":1}`, 1},
		{"trailing comma", "[{\"name\":\"a\",\"ph\":\"X\",\"pid\":1,\"tid\":1,\"ts\":1},\n", 1},
		{"partial event", `[{"name":"a","ph":"X","pid":1,"tid":1,"ts":1},{"name":"b","ph`, 1},
		{"empty array open", `[`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture, stream, err := run(t, tt.input)
			require.NoError(t, err)
			assert.Len(t, capture.Events, tt.want)
			assert.True(t, stream.Header().Truncated)
		})
	}
}

func TestStream_TruncatedObjectFails(t *testing.T) {
	_, _, err := run(t, `{"traceEvents":[{"name":"a","ph":"X","pid":1,"tid":1,"ts":1}`)
	require.Error(t, err)
}

func TestStream_Errors(t *testing.T) {
	_, _, err := run(t, "")
	assert.ErrorIs(t, err, ErrEmptyCapture)

	_, _, err = run(t, `"just a string"`)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = run(t, `{"traceEvents": 3}`)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = run(t, `[{"name" 1}]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding event 0")
}

func TestStream_MalformedEventSkipped(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"stripped args", `[
{"name":"A","ph":"X","pid":1,"tid":1,"ts":1,"dur":2},
{"name":"B","ph":"X","pid":1,"tid":1,"ts":3,"dur":1,"args":"__stripped__"},
{"name":"C","ph":"X","pid":1,"tid":1,"ts":5,"dur":1}
]`},
		{"string pid", `{"traceEvents":[
{"name":"A","ph":"X","pid":1,"tid":1,"ts":1,"dur":2},
{"name":"B","ph":"X","pid":"1","tid":1,"ts":3},
{"name":"C","ph":"X","pid":1,"tid":1,"ts":5,"dur":1}
]}`},
		{"boolean id", `[
{"name":"A","ph":"X","pid":1,"tid":1,"ts":1,"dur":2},
{"name":"B","ph":"b","pid":1,"tid":1,"ts":3,"id":true},
{"name":"C","ph":"X","pid":1,"tid":1,"ts":5,"dur":1}
]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture, stream, err := run(t, tt.input)
			require.NoError(t, err)

			require.Len(t, capture.Events, 2)
			assert.Equal(t, "A", capture.Events[0].Name)
			assert.Equal(t, "C", capture.Events[1].Name)
			assert.Equal(t, 2, stream.Count())
			assert.Equal(t, 1, stream.Header().Skipped)
			assert.False(t, stream.Header().Truncated)
		})
	}
}

func TestStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	capture := &Capture{}
	err := New(strings.NewReader(arrayCapture), capture).Run(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, capture.Events)
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestReadCapture_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json.gz")
	writeGzip(t, path, objectCapture)

	capture, err := ReadCapture(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, capture.Events, 3)
	assert.Equal(t, path, capture.Path)
	assert.Equal(t, "ns", capture.Header.DisplayTimeUnit)
}

func TestLoadFiles_KeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json.gz")
	require.NoError(t, os.WriteFile(first, []byte(arrayCapture), 0o600))
	writeGzip(t, second, objectCapture)

	captures, err := LoadFiles(context.Background(), []string{second, first})
	require.NoError(t, err)
	require.Len(t, captures, 2)
	assert.Equal(t, second, captures[0].Path)
	assert.Equal(t, first, captures[1].Path)
	assert.Equal(t, "thread_name", captures[0].Events[0].Name)
}

func TestLoadFiles_MissingFile(t *testing.T) {
	_, err := LoadFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.json")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
