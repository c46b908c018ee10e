package traceevent

import (
	"encoding/json"
	"fmt"
)

// Phase is the single-character event type tag carried in the "ph" field.
type Phase string

// Phases defined by the Trace Event Format.
const (
	PhaseBegin          Phase = "B"
	PhaseEnd            Phase = "E"
	PhaseComplete       Phase = "X"
	PhaseInstant        Phase = "i"
	PhaseInstantLegacy  Phase = "I"
	PhaseCounter        Phase = "C"
	PhaseAsyncBegin     Phase = "b"
	PhaseAsyncInstant   Phase = "n"
	PhaseAsyncEnd       Phase = "e"
	PhaseFlowStart      Phase = "s"
	PhaseFlowStep       Phase = "t"
	PhaseFlowEnd        Phase = "f"
	PhaseSample         Phase = "P"
	PhaseObjectCreated  Phase = "N"
	PhaseObjectSnapshot Phase = "O"
	PhaseObjectDeleted  Phase = "D"
	PhaseMetadata       Phase = "M"
	PhaseMark           Phase = "R"
	PhaseClockSync      Phase = "c"
)

// Event is a single trace event record. Timestamps and durations are in
// microseconds of the tracing clock.
type Event struct {
	Name     string         `json:"name"`
	Category string         `json:"cat,omitempty"`
	Phase    Phase          `json:"ph"`
	Ts       float64        `json:"ts"`
	Dur      *float64       `json:"dur,omitempty"`
	Pid      int64          `json:"pid"`
	Tid      int64          `json:"tid"`
	ID       ID             `json:"id,omitempty"`
	Scope    string         `json:"s,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
}

// IsMetadata reports whether the event annotates the model rather than
// describing traced work.
func (e *Event) IsMetadata() bool {
	return e.Phase == PhaseMetadata
}

// End returns the timestamp at which the event finishes. Events without a
// duration end where they start.
func (e *Event) End() float64 {
	if e.Dur == nil {
		return e.Ts
	}
	return e.Ts + *e.Dur
}

// Duration returns the event duration, or zero when none was recorded.
func (e *Event) Duration() float64 {
	if e.Dur == nil {
		return 0
	}
	return *e.Dur
}

// ID identifies async, flow and object events. Captures write it either as a
// string ("0x1f") or as a bare number.
type ID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid event id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}
