// Package clock is the time source for process timestamps. Tests replace
// NowFunc to get deterministic created/finished times.
package clock

import "time"

// NowFunc is the active time source.
var NowFunc = time.Now

// Now returns the current time from the active source.
func Now() time.Time {
	return NowFunc()
}
