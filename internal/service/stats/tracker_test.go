package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeClock returns the queued times in order.
type fakeClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	c.times = c.times[1:]
	return t
}

func at(ms int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(ms) * time.Millisecond)
}

func assertThreeOfFive(t *testing.T, tracker *Tracker, clock *fakeClock) {
	t.Helper()
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		tracker.FrameReceived()
	}

	// Durations 100ms, 200ms, 600ms.
	clock.times = append(clock.times, at(0), at(100), at(1000), at(1200), at(2000), at(2600))
	for _, id := range ids[:3] {
		tracker.FrameStartedHandling(id)
		tracker.FrameFinishedHandling(id)
	}

	totals := tracker.Totals()
	if totals.Received != 5 || totals.Finished != 3 {
		t.Fatalf("Expected 3/5, got %d/%d", totals.Finished, totals.Received)
	}
	if !totals.HasMean || totals.Mean != 300*time.Millisecond {
		t.Errorf("Expected mean 300ms, got %v", totals.Mean)
	}
	want := "Processed 3/5. Mean time: 0.300000 sec"
	if got := tracker.GetTotalInfoAsString(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTracker_MeanOverFinished(t *testing.T) {
	clock := &fakeClock{}
	assertThreeOfFive(t, NewTrackerWithClock(clock.now), clock)
}

func TestTracker_ResetRoundTrip(t *testing.T) {
	clock := &fakeClock{}
	tracker := NewTrackerWithClock(clock.now)
	assertThreeOfFive(t, tracker, clock)

	tracker.Reset()
	if got := tracker.GetTotalInfoAsString(); got != "Processed 0/0. Mean time: n/a sec" {
		t.Fatalf("Unexpected text after reset: %q", got)
	}

	assertThreeOfFive(t, tracker, clock)
}

func TestTracker_NoFinishedFrames(t *testing.T) {
	clock := &fakeClock{times: []time.Time{at(0)}}
	tracker := NewTrackerWithClock(clock.now)
	tracker.FrameReceived()
	tracker.FrameStartedHandling(uuid.New())

	totals := tracker.Totals()
	if totals.HasMean {
		t.Error("Expected no mean without finished frames")
	}
	want := "Processed 0/1. Mean time: n/a sec"
	if got := tracker.GetTotalInfoAsString(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if got := tracker.GetTotalInfoAsString(); got != want {
		t.Errorf("Second read differs: %q", got)
	}
}

func TestTracker_FinishWithoutStartIsIgnored(t *testing.T) {
	clock := &fakeClock{}
	tracker := NewTrackerWithClock(clock.now)
	tracker.FrameReceived()
	tracker.FrameFinishedHandling(uuid.New())

	if totals := tracker.Totals(); totals.Finished != 0 {
		t.Errorf("Expected 0 finished, got %d", totals.Finished)
	}
}

func TestTracker_FinishTwiceOverwrites(t *testing.T) {
	clock := &fakeClock{times: []time.Time{at(0), at(100), at(500)}}
	tracker := NewTrackerWithClock(clock.now)
	id := uuid.New()
	tracker.FrameReceived()
	tracker.FrameStartedHandling(id)
	tracker.FrameFinishedHandling(id)
	tracker.FrameFinishedHandling(id)

	totals := tracker.Totals()
	if totals.Finished != 1 || totals.Mean != 500*time.Millisecond {
		t.Errorf("Expected one frame with 500ms, got %d with %v", totals.Finished, totals.Mean)
	}
}

func TestTracker_SubMillisecondMean(t *testing.T) {
	base := at(0)
	clock := &fakeClock{times: []time.Time{base, base.Add(250 * time.Microsecond)}}
	tracker := NewTrackerWithClock(clock.now)
	id := uuid.New()
	tracker.FrameReceived()
	tracker.FrameStartedHandling(id)
	tracker.FrameFinishedHandling(id)

	want := "Processed 1/1. Mean time: 0.000250 sec"
	if got := tracker.GetTotalInfoAsString(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTracker_RestartAfterFinish(t *testing.T) {
	clock := &fakeClock{times: []time.Time{at(0), at(100), at(1000), at(1400)}}
	tracker := NewTrackerWithClock(clock.now)
	id := uuid.New()
	tracker.FrameReceived()
	tracker.FrameStartedHandling(id)
	tracker.FrameFinishedHandling(id)

	// Starting again discards the finished timing until the next finish.
	tracker.FrameStartedHandling(id)
	if totals := tracker.Totals(); totals.Finished != 0 || totals.HasMean {
		t.Fatalf("Expected the restarted frame to be unfinished, got %+v", totals)
	}
	tracker.FrameFinishedHandling(id)
	if totals := tracker.Totals(); totals.Finished != 1 || totals.Mean != 400*time.Millisecond {
		t.Errorf("Expected one frame with 400ms, got %+v", totals)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			tracker.FrameReceived()
			tracker.FrameStartedHandling(id)
			_ = tracker.GetTotalInfoAsString()
			tracker.FrameFinishedHandling(id)
		}()
	}
	wg.Wait()

	totals := tracker.Totals()
	if totals.Received != 200 || totals.Finished != 200 {
		t.Errorf("Expected 200/200, got %d/%d", totals.Finished, totals.Received)
	}
	if totals.Finished > totals.Received {
		t.Error("Finished exceeds received")
	}
}
