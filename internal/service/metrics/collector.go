// Package metrics exposes Prometheus metrics for frame analysis.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the analysis metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	// Counters
	framesReceived *prometheus.CounterVec
	framesDropped  prometheus.Counter
	verdicts       *prometheus.CounterVec
	stageFailures  *prometheus.CounterVec

	// Gauges
	analyzing     prometheus.Gauge
	badFramesHeld prometheus.Gauge
	queueDepth    prometheus.Gauge

	// Histograms
	analysisDuration prometheus.Histogram
	sharpness        prometheus.Histogram
}

// NewCollector creates a collector with a fresh registry, so several can coexist in tests.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{registry: reg}

	c.framesReceived = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_frames_received_total",
		Help: "Frames received while a session was analyzing",
	}, []string{"source"})

	c.framesDropped = factory.NewCounter(prometheus.CounterOpts{
		Name: "framecheck_frames_dropped_total",
		Help: "Frames dropped because the processing queue was full",
	})

	c.verdicts = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_verdicts_total",
		Help: "Metric verdicts by metric and outcome",
	}, []string{"metric", "verdict"})

	c.stageFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_stage_failures_total",
		Help: "Pipeline stage failures by stage",
	}, []string{"stage"})

	c.analyzing = factory.NewGauge(prometheus.GaugeOpts{
		Name: "framecheck_session_analyzing",
		Help: "1 while a session is analyzing, 0 when idle",
	})

	c.badFramesHeld = factory.NewGauge(prometheus.GaugeOpts{
		Name: "framecheck_bad_frames_held",
		Help: "Bad frame records currently retained",
	})

	c.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Name: "framecheck_processing_queue_depth",
		Help: "Frames waiting for a worker",
	})

	c.analysisDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "framecheck_analysis_duration_seconds",
		Help:    "Time from receipt to completed analysis",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	c.sharpness = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "framecheck_sharpness_std",
		Help:    "Laplacian standard deviation of analyzed frames",
		Buckets: []float64{5, 10, 15, 20, 25, 35, 50, 75, 100},
	})

	return c
}

func (c *Collector) FrameReceived(source string) {
	c.framesReceived.WithLabelValues(source).Inc()
}

func (c *Collector) FrameDropped() {
	c.framesDropped.Inc()
}

// Verdict records one metric outcome, e.g. ("sharpness", true).
func (c *Collector) Verdict(metric string, bad bool) {
	outcome := "good"
	if bad {
		outcome = "bad"
	}
	c.verdicts.WithLabelValues(metric, outcome).Inc()
}

func (c *Collector) StageFailed(stage string) {
	c.stageFailures.WithLabelValues(stage).Inc()
}

func (c *Collector) ObserveSharpness(std float64) {
	c.sharpness.Observe(std)
}

func (c *Collector) ObserveAnalysis(d time.Duration) {
	c.analysisDuration.Observe(d.Seconds())
}

func (c *Collector) SetAnalyzing(on bool) {
	if on {
		c.analyzing.Set(1)
		return
	}
	c.analyzing.Set(0)
}

func (c *Collector) SetBadFramesHeld(n int) {
	c.badFramesHeld.Set(float64(n))
}

func (c *Collector) SetQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
