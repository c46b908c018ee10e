// Package eventstream decodes Trace Event Format captures and feeds the
// decoded events, one at a time and in file order, to a Handler.
//
// Both serializations defined by the format are accepted:
//
//   - JSON Array Format: a bare array of events. The closing bracket may be
//     missing, as emitted by tracers that were killed mid-write.
//   - JSON Object Format: an object whose "traceEvents" key holds the events.
//     "displayTimeUnit", "otherData" and "metadata" are kept in the Header;
//     other keys (stackFrames, samples, systemTraceEvents, ...) are skipped.
//
// Gzip-compressed captures are detected by their magic bytes.
package eventstream
