package config

import (
	"testing"
	"time"
)

func TestCalculateBetweenTime(t *testing.T) {
	cases := []struct {
		name  string
		timer Timer
		want  time.Duration
	}{
		{"five minutes", Timer{Minutes: 5}, 5 * time.Minute},
		{"mixed units", Timer{Hours: 1, Minutes: 30}, 90 * time.Minute},
		{"days", Timer{Days: 2}, 48 * time.Hour},
		{"zero timer clamps to a second", Timer{}, time.Second},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CalculateBetweenTime(c.timer); got != c.want {
				t.Errorf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestPruneIntervalUpdatesDeliversCurrentValue(t *testing.T) {
	updates := PruneIntervalUpdates()

	select {
	case interval := <-updates:
		if interval <= 0 {
			t.Fatalf("expected a positive interval, got %v", interval)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the current interval to be delivered immediately")
	}
}

func TestSetPruneIntervalNotifiesListeners(t *testing.T) {
	updates := PruneIntervalUpdates()
	<-updates // drain the initial value

	target := 7 * time.Minute
	if GetPruneInterval() == target {
		target = 9 * time.Minute
	}
	setPruneInterval(target)

	select {
	case interval := <-updates:
		if interval != target {
			t.Fatalf("expected %v, got %v", target, interval)
		}
	case <-time.After(time.Second):
		t.Fatal("expected listeners to be notified of the change")
	}

	if GetPruneInterval() != target {
		t.Fatalf("expected stored interval %v, got %v", target, GetPruneInterval())
	}
}
