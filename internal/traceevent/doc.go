// Package traceevent defines the record shape of the Trace Event Format as
// emitted by Chrome and system tracing instrumentation.
//
// An Event either describes traced work (phase B, E, X, i, ...) or, when its
// phase is PhaseMetadata, annotates the model built from the capture. Events
// are immutable once decoded: consumers only read them and keep references.
package traceevent
