package tank

import "time"

// Clock supplies wall time for cosmetic effects such as the highlight
// pulse. Simulation decisions never read it; they run on tick-derived
// time so a recorded session replays to the same digests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
