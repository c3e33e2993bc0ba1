package session

import (
	"errors"
	"sync"
	"time"

	"framecheck/internal/config"
	"framecheck/internal/logger"
	"framecheck/internal/model"
	"framecheck/internal/service/analysis"
	"framecheck/internal/service/classifier"
	"framecheck/internal/service/metrics"
	"framecheck/internal/service/stats"
	"framecheck/internal/service/storage"

	"github.com/google/uuid"
)

var (
	ErrNotAnalyzing     = errors.New("session is not analyzing")
	ErrAlreadyAnalyzing = errors.New("session is already analyzing")
	ErrQueueFull        = errors.New("processing queue full")
	ErrClosed           = errors.New("controller is closed")
)

type State int

const (
	StateIdle State = iota
	StateAnalyzing
)

func (s State) String() string {
	if s == StateAnalyzing {
		return "analyzing"
	}
	return "idle"
}

// FrameReport is what the display side receives for every analyzed frame.
type FrameReport struct {
	FrameID uuid.UUID
	Source  string
	Result  *classifier.Result
	Stats   string
}

// Text is the rendered result followed by the stats line.
func (r FrameReport) Text() string {
	text := r.Result.Text()
	if text == "" {
		return r.Stats
	}
	return text + "\n" + r.Stats
}

type frameTask struct {
	id         uuid.UUID
	frame      model.Frame
	generation uint64
	received   time.Time
}

// Controller runs the Idle/Analyzing session state machine and the analysis workers.
type Controller struct {
	pipeline   *analysis.Pipeline
	thresholds config.Thresholds
	collector  *storage.BadFrameCollector
	tracker    *stats.Tracker
	metrics    *metrics.Collector
	logger     *logger.Logger

	// mu guards the session; workers fold results under the read lock,
	// Start and Stop take the write lock.
	mu         sync.RWMutex
	state      State
	generation uint64
	closed     bool
	lastReport *model.SessionReport

	processingQueue chan frameTask
	results         chan FrameReport
	numWorkers      int

	callbacksMu sync.Mutex
	callbacks   []func(FrameReport)

	wg            sync.WaitGroup
	presenterDone chan struct{}
	closeOnce     sync.Once
}

func NewController(k analysis.Kernel, config *config.Config, collector *storage.BadFrameCollector, tracker *stats.Tracker, metrics *metrics.Collector, logger *logger.Logger) *Controller {
	c := &Controller{
		pipeline:        analysis.NewPipeline(k, config.Thresholds.DarkPixel, config.Thresholds.BrightPixel),
		thresholds:      config.Thresholds,
		collector:       collector,
		tracker:         tracker,
		metrics:         metrics,
		logger:          logger,
		numWorkers:      max(config.ProcessingWorkers, 1),
		processingQueue: make(chan frameTask, max(config.ProcessingQueueSize, 1)),
		results:         make(chan FrameReport, max(config.ResultQueueSize, 1)),
		presenterDone:   make(chan struct{}),
	}

	for i := 0; i < c.numWorkers; i++ {
		c.wg.Add(1)
		go c.processingWorker(i)
	}
	go c.presenter()

	c.logger.Info("🎬 Session controller started with %d worker(s)", c.numWorkers)
	return c
}

// OnResult registers a callback for per-frame reports. Callbacks run one at a time,
// on a single goroutine, in registration order.
func (c *Controller) OnResult(fn func(FrameReport)) {
	c.callbacksMu.Lock()
	defer c.callbacksMu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Start resets the bookkeeping and begins accepting frames.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state == StateAnalyzing {
		return ErrAlreadyAnalyzing
	}

	c.tracker.Reset()
	c.collector.Reset()
	c.generation++
	c.state = StateAnalyzing

	c.metrics.SetAnalyzing(true)
	c.metrics.SetBadFramesHeld(0)
	c.logger.Info("▶️  Session %d started", c.generation)
	return nil
}

// Stop stops accepting frames and returns the bad frames held at this instant.
// Frames still in flight are discarded when they complete, so the report is final.
func (c *Controller) Stop() (model.SessionReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAnalyzing {
		return model.SessionReport{}, ErrNotAnalyzing
	}
	c.state = StateIdle

	report := model.NewSessionReport(c.collector.GetBadFrames())
	c.lastReport = &report

	c.metrics.SetAnalyzing(false)
	c.logger.Info("⏹️  Session %d stopped: %s (%s)", c.generation, report.Message(), c.tracker.GetTotalInfoAsString())
	return report, nil
}

// HandleFrame queues a frame for analysis without blocking.
func (c *Controller) HandleFrame(frame model.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	if c.state != StateAnalyzing {
		return ErrNotAnalyzing
	}

	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}

	id := uuid.New()
	c.tracker.FrameReceived()
	c.tracker.FrameStartedHandling(id)
	c.metrics.FrameReceived(frame.Source)

	select {
	case c.processingQueue <- frameTask{id: id, frame: frame, generation: c.generation, received: time.Now()}:
		c.metrics.SetQueueDepth(len(c.processingQueue))
		return nil
	default:
		c.metrics.FrameDropped()
		c.logger.Warning("⚠️  Processing queue full - dropping frame from %s", frame.Source)
		return ErrQueueFull
	}
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastReport returns the report of the most recently stopped session.
func (c *Controller) LastReport() (model.SessionReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastReport == nil {
		return model.SessionReport{}, false
	}
	return *c.lastReport, true
}

func (c *Controller) Stats() string {
	return c.tracker.GetTotalInfoAsString()
}

// Close stops the workers and the presenter. Queued frames are drained but not folded.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.state = StateIdle
		close(c.processingQueue)
		c.mu.Unlock()

		c.wg.Wait()
		close(c.results)
		<-c.presenterDone
		c.metrics.SetAnalyzing(false)
		c.logger.Info("🛑 All processing workers stopped")
	})
}

func (c *Controller) processingWorker(workerID int) {
	defer c.wg.Done()

	c.logger.Info("🔧 Processing worker %d started", workerID)

	for task := range c.processingQueue {
		c.metrics.SetQueueDepth(len(c.processingQueue))
		if report, ok := c.process(task); ok {
			c.results <- report
		}
	}

	c.logger.Info("🔧 Processing worker %d stopped", workerID)
}

// process analyzes one frame and folds it into the session it was received in.
// It reports false when that session is over.
func (c *Controller) process(task frameTask) (FrameReport, bool) {
	m := c.pipeline.Run(task.frame)
	result := classifier.FromMeasurements(m).Build(c.thresholds, task.frame)

	c.mu.RLock()
	if c.state != StateAnalyzing || c.generation != task.generation {
		c.mu.RUnlock()
		return FrameReport{}, false
	}
	for _, record := range result.BadRecords() {
		c.collector.AddBadFrame(record)
	}
	c.tracker.FrameFinishedHandling(task.id)
	statsText := c.tracker.GetTotalInfoAsString()
	held := c.collector.Len()
	c.mu.RUnlock()

	c.observe(m, result, held, time.Since(task.received))
	for _, err := range m.Errors {
		c.logger.Warning("Frame %s from %s: %v", task.id, task.frame.Source, err)
	}
	if result.HasBad() {
		c.logger.Warning("🚫 Bad frame %s from %s:\n%s", task.id, task.frame.Source, result.ANSI())
	}

	return FrameReport{
		FrameID: task.id,
		Source:  task.frame.Source,
		Result:  result,
		Stats:   statsText,
	}, true
}

func (c *Controller) observe(m analysis.Measurements, result *classifier.Result, held int, elapsed time.Duration) {
	c.metrics.ObserveAnalysis(elapsed)
	c.metrics.SetBadFramesHeld(held)

	if v := result.Sharpness(); v != nil {
		c.metrics.ObserveSharpness(v.Score())
		c.metrics.Verdict("sharpness", classifier.IsBad(v))
	}
	if dark, bright := result.Exposure(); dark != nil {
		c.metrics.Verdict("dark", classifier.IsBad(dark))
		c.metrics.Verdict("bright", classifier.IsBad(bright))
	}
	for _, err := range m.Errors {
		var stageErr *analysis.StageError
		if errors.As(err, &stageErr) {
			c.metrics.StageFailed(stageErr.Stage.String())
		}
	}
}

// presenter hands reports to the callbacks from a single goroutine.
func (c *Controller) presenter() {
	defer close(c.presenterDone)

	for report := range c.results {
		c.callbacksMu.Lock()
		callbacks := append([]func(FrameReport)(nil), c.callbacks...)
		c.callbacksMu.Unlock()

		for _, fn := range callbacks {
			fn(report)
		}
	}
}
