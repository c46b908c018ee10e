package timesync

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Converter maps trace timestamps (microseconds) to wall-clock time.
type Converter struct {
	// base is the wall-clock time of trace timestamp originMicros.
	base         time.Time
	originMicros float64
}

// NewConverter creates a converter anchored at system boot time.
// It reads the boot time from /proc/stat.
// If reading fails, it uses a conservative fallback estimate.
func NewConverter() (*Converter, error) {
	bootTime, err := getSystemBootTime()
	if err != nil {
		bootTime = time.Now().Add(-time.Hour)
	}

	return &Converter{
		base: bootTime,
	}, nil
}

// NewAnchoredConverter creates a converter that maps the trace timestamp
// originMicros to anchor.
func NewAnchoredConverter(anchor time.Time, originMicros float64) *Converter {
	return &Converter{
		base:         anchor,
		originMicros: originMicros,
	}
}

// MicrosToWallClock converts a trace timestamp to wall-clock time.
func (c *Converter) MicrosToWallClock(micros float64) time.Time {
	return c.base.Add(MicrosToDuration(micros - c.originMicros))
}

// Base returns the wall-clock time of the converter's origin.
func (c *Converter) Base() time.Time {
	return c.base
}

// MicrosToDuration converts a span of trace microseconds to a time.Duration,
// keeping sub-microsecond precision.
func MicrosToDuration(micros float64) time.Duration {
	return time.Duration(micros * float64(time.Microsecond))
}

// getSystemBootTime reads the system boot time from /proc/stat.
func getSystemBootTime() (time.Time, error) {
	file, err := os.Open("/proc/stat")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open /proc/stat: %w", err)
	}
	defer func() {
		_ = file.Close() //nolint:errcheck // Read-only file, defer cleanup
	}()

	return parseBootTime(bufio.NewScanner(file))
}

func parseBootTime(scanner *bufio.Scanner) (time.Time, error) {
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "btime ") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				bootTimeSec, err := strconv.ParseInt(fields[1], 10, 64)
				if err != nil {
					return time.Time{}, fmt.Errorf("failed to parse btime: %w", err)
				}
				return time.Unix(bootTimeSec, 0), nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return time.Time{}, fmt.Errorf("error reading /proc/stat: %w", err)
	}

	return time.Time{}, fmt.Errorf("btime not found in /proc/stat")
}
