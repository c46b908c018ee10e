// Package output renders a built trace model.
//
// Summary / WriteSummary produce a human (text) or machine (JSON) report of
// the model: processor count, time bounds, well-known processes, and every
// process with its threads in viewer order.
//
// OTELFormatter exports the model as OpenTelemetry spans:
//
//	trace (bounds)
//	 └── process (own bounds)
//	      └── thread (own bounds)
//	           ├── X events, B/E pairs   → child spans
//	           └── i / I / R events      → span events (thread, process or root by scope)
//
// Trace clock timestamps are placed on the wall clock by a timesync.Converter.
// Custom attributes are evaluated per event span by an attributes.Evaluator.
package output
