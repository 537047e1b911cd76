package portalflow

import "time"

// Clock abstracts wall-clock reads so the cooldown can be tested with a
// fake clock. The library never sleeps or ticks on its own; all time-based
// behavior is derived from stored timestamps plus Now at read time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall clock used when no [Builder.WithClock]
// override is provided.
func SystemClock() Clock {
	return systemClock{}
}
