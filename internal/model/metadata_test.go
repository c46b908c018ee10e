package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadataKind(t *testing.T) {
	tests := []struct {
		name string
		want MetadataKind
	}{
		{"num_cpus", MetadataNumCPUs},
		{"process_name", MetadataProcessName},
		{"process_labels", MetadataProcessLabels},
		{"process_sort_index", MetadataProcessSortIndex},
		{"trace_buffer_overflowed", MetadataTraceBufferOverflowed},
		{"thread_name", MetadataThreadName},
		{"thread_sort_index", MetadataThreadSortIndex},
		{"IsTimeTicksHighResolution", MetadataIsTimeTicksHighResolution},
		{"TraceConfig", MetadataTraceConfig},
		{"istimeticksHighResolution", MetadataUnknown},
		{"", MetadataUnknown},
		{"totally_unknown_kind", MetadataUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMetadataKind(tt.name))
		})
	}
}

func TestMetadata_ProcessAttributes(t *testing.T) {
	tr, _ := newTestTrace(t)
	config := map[string]any{"record_mode": "record-until-full"}

	tr.AddEvent(metadata("process_labels", 2, 0, map[string]any{"labels": "example.com"}))
	tr.AddEvent(metadata("process_sort_index", 2, 0, map[string]any{"sort_index": float64(3)}))
	tr.AddEvent(metadata("trace_buffer_overflowed", 2, 0, map[string]any{"overflowed_at_ts": 1234.5}))
	tr.AddEvent(metadata("IsTimeTicksHighResolution", 2, 0, map[string]any{"value": true}))
	tr.AddEvent(metadata("TraceConfig", 2, 0, map[string]any{"value": config}))

	p := tr.Process(2)
	assert.Equal(t, "example.com", p.Labels)
	require.NotNil(t, p.SortIndex)
	assert.Equal(t, int64(3), *p.SortIndex)
	require.NotNil(t, p.TraceBufferOverflowedAt)
	assert.Equal(t, 1234.5, *p.TraceBufferOverflowedAt)
	assert.True(t, p.IsTimeTicksHighResolution)
	assert.Equal(t, config, p.TraceConfig)
}

func TestMetadata_WellKnownThreads(t *testing.T) {
	tr, _ := newTestTrace(t)

	tr.AddEvent(metadata("thread_name", 4, 1, map[string]any{"name": "CrRendererMain"}))
	tr.AddEvent(metadata("thread_name", 4, 2, map[string]any{"name": "ScriptStreamerThread"}))
	tr.AddEvent(metadata("thread_name", 4, 3, map[string]any{"name": "Compositor"}))

	p := tr.Process(4)
	assert.Same(t, tr.Thread(4, 1), p.MainThread)
	assert.Same(t, tr.Thread(4, 2), p.ScriptStreamerThread)
	assert.Equal(t, "Compositor", tr.Thread(4, 3).Name)
	assert.Len(t, p.Threads(), 3)
}

func TestMetadata_MainThreadLastMatchWins(t *testing.T) {
	tr, _ := newTestTrace(t)

	tr.AddEvent(metadata("thread_name", 4, 1, map[string]any{"name": "CrRendererMain"}))
	tr.AddEvent(metadata("thread_name", 4, 9, map[string]any{"name": "CrRendererMain"}))

	assert.Same(t, tr.Thread(4, 9), tr.Process(4).MainThread)
}

func TestMetadata_MissingArgsWriteAbsentValues(t *testing.T) {
	tr, hook := newTestTrace(t)

	tr.AddEvent(metadata("process_name", 1, 0, map[string]any{"name": "A"}))
	tr.AddEvent(metadata("process_sort_index", 1, 0, map[string]any{"sort_index": float64(2)}))
	tr.AddEvent(metadata("num_cpus", 0, 0, map[string]any{"number": float64(8)}))

	tr.AddEvent(metadata("process_name", 1, 0, nil))
	tr.AddEvent(metadata("process_sort_index", 1, 0, map[string]any{"sort_index": "high"}))
	tr.AddEvent(metadata("num_cpus", 0, 0, map[string]any{}))
	tr.AddEvent(metadata("TraceConfig", 1, 0, nil))

	p := tr.Process(1)
	assert.Empty(t, p.Name)
	assert.Nil(t, p.SortIndex)
	assert.Nil(t, p.TraceConfig)
	_, ok := tr.NumberOfProcessors()
	assert.False(t, ok)
	assert.Empty(t, hook.Entries, "absent args are not diagnosed")
}

func TestMetadata_NumericArgForms(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"float64", float64(16), 16},
		{"int", 12, 12},
		{"int64", int64(6), 6},
		{"json.Number", json.Number("24"), 24},
		{"json.Number float", json.Number("2.0"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTrace(t)
			tr.AddEvent(metadata("num_cpus", 0, 0, map[string]any{"number": tt.value}))

			got, ok := tr.NumberOfProcessors()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetadata_UnrepresentableIntArgs(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
		{"too large", 1e19},
		{"too small", -1e19},
		{"json.Number too large", json.Number("1e30")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, hook := newTestTrace(t)
			tr.AddEvent(metadata("num_cpus", 0, 0, map[string]any{"number": tt.value}))
			tr.AddEvent(metadata("process_sort_index", 1, 0, map[string]any{"sort_index": tt.value}))

			_, ok := tr.NumberOfProcessors()
			assert.False(t, ok)
			assert.Nil(t, tr.Process(1).SortIndex)
			assert.Empty(t, hook.Entries)
		})
	}
}

func TestProcess_SortedThreads(t *testing.T) {
	tr, _ := newTestTrace(t)
	p := tr.Process(1)
	p.Thread(5)
	p.Thread(2)
	tr.AddEvent(metadata("thread_sort_index", 1, 8, map[string]any{"sort_index": float64(0)}))

	var tids []int64
	for _, th := range p.SortedThreads() {
		tids = append(tids, th.Tid)
	}
	assert.Equal(t, []int64{8, 2, 5}, tids)

	_, ok := p.LookupThread(3)
	assert.False(t, ok)
	assert.Equal(t, "pid 1", p.DisplayName())
}
