package traceevent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_DecodeComplete(t *testing.T) {
	raw := `{"name":"RunTask","cat":"toplevel","ph":"X","ts":100.5,"dur":50,"pid":1,"tid":7,"args":{"src":"main.cc"}}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	assert.Equal(t, "RunTask", ev.Name)
	assert.Equal(t, "toplevel", ev.Category)
	assert.Equal(t, PhaseComplete, ev.Phase)
	assert.Equal(t, int64(1), ev.Pid)
	assert.Equal(t, int64(7), ev.Tid)
	assert.InDelta(t, 150.5, ev.End(), 1e-9)
	assert.InDelta(t, 50.0, ev.Duration(), 1e-9)
	assert.Equal(t, "main.cc", ev.Args["src"])
	assert.False(t, ev.IsMetadata())
}

func TestEvent_NoDuration(t *testing.T) {
	ev := Event{Phase: PhaseInstant, Ts: 42}

	assert.Nil(t, ev.Dur)
	assert.Equal(t, 42.0, ev.End())
	assert.Equal(t, 0.0, ev.Duration())
}

func TestEvent_IsMetadata(t *testing.T) {
	tests := []struct {
		phase Phase
		want  bool
	}{
		{PhaseMetadata, true},
		{PhaseComplete, false},
		{PhaseBegin, false},
		{Phase("m"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			ev := Event{Phase: tt.phase}
			assert.Equal(t, tt.want, ev.IsMetadata())
		})
	}
}

func TestEvent_DecodeID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ID
	}{
		{"string", `{"ph":"b","id":"0x1f"}`, "0x1f"},
		{"number", `{"ph":"b","id":42}`, "42"},
		{"absent", `{"ph":"b"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev Event
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ev))
			assert.Equal(t, tt.want, ev.ID)
		})
	}

	var ev Event
	assert.Error(t, json.Unmarshal([]byte(`{"ph":"b","id":true}`), &ev))
}
