package timeutil

import "time"

var nowFunc = time.Now

// Now returns the current time. It is wrapped to simplify testing and
// allow centralized timezone handling.
func Now() time.Time {
	return nowFunc()
}

// Timestamp returns the current time as a sortable RFC3339 string, the
// canonical at-rest form for all title and replay-event timestamps.
func Timestamp() string {
	return nowFunc().UTC().Format(time.RFC3339)
}

// SetNowFunc overrides the function used by Now. Passing nil resets it.
func SetNowFunc(fn func() time.Time) {
	if fn == nil {
		nowFunc = time.Now
		return
	}
	nowFunc = fn
}
