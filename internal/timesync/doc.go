// Package timesync converts trace clock timestamps to wall-clock time.
//
// Trace Event Format timestamps are microseconds on the tracing clock. On
// Linux, Chrome and most system tracers use CLOCK_MONOTONIC, i.e. time since
// boot, so a capture taken on this host can be placed on the wall clock by
// reading the boot time from /proc/stat. Captures from other hosts need an
// explicit anchor: a wall-clock time that a given trace timestamp maps to.
package timesync
