package prs

import (
	"fmt"
	"time"
)

// defaultWindowMonths is how far back an unbounded window reaches.
const defaultWindowMonths = 6

// Window is an inclusive [Start, End] range of merge timestamps.
// A zero Start or End is filled in by Resolve.
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolve fills in missing bounds: End defaults to now and Start to six
// calendar months before End.
func (w Window) Resolve(now time.Time) Window {
	if w.End.IsZero() {
		w.End = now
	}
	if w.Start.IsZero() {
		w.Start = w.End.AddDate(0, -defaultWindowMonths, 0)
	}
	return w
}

// Validate reports an error for windows that end before they start.
func (w Window) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return fmt.Errorf("window end %s is before start %s", w.End.Format(time.DateOnly), w.Start.Format(time.DateOnly))
	}
	return nil
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Period renders the window as "September 2024 - March 2025".
func (w Window) Period() string {
	return w.Start.Format("January 2006") + " - " + w.End.Format("January 2006")
}

func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + " to " + w.End.Format(time.DateOnly)
}
