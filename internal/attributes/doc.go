// Package attributes provides expression evaluation and validation for custom
// span attributes, trace IDs, and parent span IDs.
//
// Expressions use the expr language and run against one of two environments:
//   - EventEnv: a single timed event with its process and thread names
//     (name, cat, ph, ts, dur, pid, tid, args, process, thread, labels)
//   - TraceEnv: the aggregated capture (processes, browser, gpu, renderers,
//     cpus, events, duration, other)
//
// Three evaluators:
//   - Evaluator: Evaluates custom attribute expressions against EventEnv
//   - TraceIDEvaluator: Evaluates and validates trace ID expressions (32 hex chars)
//   - ParentIDEvaluator: Evaluates and validates parent span ID expressions (16 hex chars)
//
// Invalid trace IDs are hashed with SHA-256 to produce valid IDs.
// Invalid parent IDs result in a null parent (zero span ID).
package attributes
