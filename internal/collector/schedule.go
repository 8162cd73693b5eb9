package collector

import "time"

const (
	// updateOffset delays each poll past the wall-clock boundary so the
	// upstream provider has finished its own update for that mark.
	updateOffset = 30 * time.Second

	// scheduleGuard keeps two polls from landing nearly back to back.
	scheduleGuard = 5 * time.Second
)

// nextPollDelay computes the delay until the next synchronized poll: the
// next wall-clock time where minute mod interval == 0, plus the fixed
// offset. Targeting the boundary instead of "now + interval" keeps the
// schedule from drifting after a slow or missed cycle.
func nextPollDelay(now time.Time, interval time.Duration) time.Duration {
	minutes := int(interval / time.Minute)
	if minutes <= 0 {
		minutes = 1
	}

	toBoundary := minutes - now.Minute()%minutes
	if toBoundary == minutes {
		// Already on a boundary minute.
		toBoundary = 0
	}

	delay := time.Duration(toBoundary)*time.Minute - time.Duration(now.Second())*time.Second + updateOffset
	if delay < scheduleGuard {
		delay += time.Duration(minutes) * time.Minute
	}
	return delay
}
