package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type frameTiming struct {
	started  time.Time
	duration time.Duration
	done     bool
}

// Tracker counts received frames and times each frame from start to finish.
// finished and sum are kept current so reads do not walk the frames.
type Tracker struct {
	mu       sync.Mutex
	received int
	finished int
	sum      time.Duration
	frames   map[uuid.UUID]*frameTiming
	now      func() time.Time
}

// Totals is a consistent snapshot of the tracker.
type Totals struct {
	Received int
	Finished int
	Mean     time.Duration
	HasMean  bool
}

func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock lets tests control the timestamps.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		frames: make(map[uuid.UUID]*frameTiming),
		now:    now,
	}
}

func (t *Tracker) FrameReceived() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.received++
}

// FrameStartedHandling records the start time for id. Starting again restarts the timing.
func (t *Tracker) FrameStartedHandling(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timing, ok := t.frames[id]; ok && timing.done {
		t.finished--
		t.sum -= timing.duration
	}
	t.frames[id] = &frameTiming{started: t.now()}
}

// FrameFinishedHandling records the finish time for id. Unknown ids are ignored;
// a second call overwrites the first finish time.
func (t *Tracker) FrameFinishedHandling(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timing, ok := t.frames[id]
	if !ok {
		return
	}
	if timing.done {
		t.sum -= timing.duration
	} else {
		t.finished++
	}
	timing.duration = t.now().Sub(timing.started)
	timing.done = true
	t.sum += timing.duration
}

func (t *Tracker) Totals() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()

	totals := Totals{Received: t.received, Finished: t.finished}
	if t.finished > 0 {
		totals.Mean = t.sum / time.Duration(t.finished)
		totals.HasMean = true
	}
	return totals
}

// GetTotalInfoAsString renders "Processed <finished>/<received>. Mean time: <mean> sec"
// with the mean in seconds to the microsecond.
func (t *Tracker) GetTotalInfoAsString() string {
	totals := t.Totals()
	mean := "n/a"
	if totals.HasMean {
		mean = fmt.Sprintf("%.6f", totals.Mean.Seconds())
	}
	return fmt.Sprintf("Processed %d/%d. Mean time: %s sec", totals.Finished, totals.Received, mean)
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.received = 0
	t.finished = 0
	t.sum = 0
	t.frames = make(map[uuid.UUID]*frameTiming)
}
