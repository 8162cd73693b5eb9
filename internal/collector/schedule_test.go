package collector

import (
	"testing"
	"time"
)

func at(min, sec int) time.Time {
	return time.Date(2025, 3, 14, 12, min, sec, 0, time.UTC)
}

func TestNextPollDelay(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		interval time.Duration
		want     time.Duration
	}{
		{"mid-interval", at(17, 10), 5 * time.Minute, 200 * time.Second},
		{"on boundary minute", at(15, 0), 5 * time.Minute, 30 * time.Second},
		{"just before offset", at(15, 26), 5 * time.Minute, 304 * time.Second},
		{"past offset on boundary", at(15, 45), 5 * time.Minute, 285 * time.Second},
		{"one minute interval", at(17, 10), time.Minute, 20 * time.Second},
		{"quarter hour", at(3, 0), 15 * time.Minute, 12*time.Minute + 30*time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextPollDelay(tc.now, tc.interval); got != tc.want {
				t.Fatalf("nextPollDelay(%v, %v) = %v, want %v", tc.now, tc.interval, got, tc.want)
			}
		})
	}
}

func TestNextPollDelayNeverTooSoon(t *testing.T) {
	for _, interval := range []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute} {
		for min := 0; min < 60; min++ {
			for sec := 0; sec < 60; sec += 7 {
				delay := nextPollDelay(at(min, sec), interval)
				if delay < scheduleGuard {
					t.Fatalf("delay %v below guard at 12:%02d:%02d interval %v", delay, min, sec, interval)
				}
				if delay > interval+updateOffset {
					t.Fatalf("delay %v beyond one period at 12:%02d:%02d interval %v", delay, min, sec, interval)
				}
			}
		}
	}
}
