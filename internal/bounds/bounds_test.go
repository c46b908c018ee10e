package bounds

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrzor/trace-model/internal/traceevent"
)

func dur(v float64) *float64 { return &v }

func TestBounds_Empty(t *testing.T) {
	var b Bounds

	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0.0, b.Range())
	assert.False(t, b.Contains(0))
}

func TestBounds_AddEvent(t *testing.T) {
	var b Bounds

	b.AddEvent(&traceevent.Event{Phase: traceevent.PhaseComplete, Ts: 100, Dur: dur(50)})

	assert.False(t, b.IsEmpty())
	assert.Equal(t, 100.0, b.Min())
	assert.Equal(t, 150.0, b.Max())
	assert.Equal(t, 50.0, b.Range())
}

func TestBounds_MinMaxOverSequence(t *testing.T) {
	var b Bounds
	timestamps := []float64{40, 10, 90, 25, 60}

	for _, ts := range timestamps {
		b.AddEvent(&traceevent.Event{Phase: traceevent.PhaseInstant, Ts: ts})
	}

	assert.Equal(t, 10.0, b.Min())
	assert.Equal(t, 90.0, b.Max())
}

func TestBounds_NeverNarrows(t *testing.T) {
	var b Bounds
	b.AddRange(10, 20)

	b.AddValue(15)
	assert.Equal(t, 10.0, b.Min())
	assert.Equal(t, 20.0, b.Max())

	b.AddRange(5, 12)
	assert.Equal(t, 5.0, b.Min())
	assert.Equal(t, 20.0, b.Max())

	b.AddValue(30)
	assert.Equal(t, 5.0, b.Min())
	assert.Equal(t, 30.0, b.Max())
}

func TestBounds_AddBounds(t *testing.T) {
	var a, b, empty Bounds
	a.AddRange(10, 20)
	b.AddRange(0, 15)

	a.AddBounds(&empty)
	assert.Equal(t, 10.0, a.Min())

	a.AddBounds(&b)
	assert.Equal(t, 0.0, a.Min())
	assert.Equal(t, 20.0, a.Max())
	assert.True(t, a.Contains(20))
	assert.False(t, a.Contains(21))
}

func TestBounds_NegativeTimestamps(t *testing.T) {
	var b Bounds
	b.AddValue(-5)

	assert.False(t, b.IsEmpty())
	assert.Equal(t, -5.0, b.Min())
	assert.Equal(t, -5.0, b.Max())
}
