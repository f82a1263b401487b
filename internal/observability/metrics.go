package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SceneCollector bundles Prometheus metrics for the per-frame scene update
// and the fix-delivery boundary.
type SceneCollector struct {
	gatherer prometheus.Gatherer

	FramesTotal   prometheus.Counter
	FrameDuration prometheus.Histogram

	NodeUpdatesTotal prometheus.Counter
	SegmentResults   *prometheus.CounterVec

	FixesTotal     *prometheus.CounterVec
	FixHistorySize prometheus.Gauge

	TrackedEntities prometheus.Gauge
}

// NewSceneCollector registers scene Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSceneCollector(reg prometheus.Registerer) (*SceneCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scene_frames_total",
		Help: "Total number of completed frame updates.",
	}), "scene_frames_total")
	if err != nil {
		return nil, err
	}

	frameDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scene_frame_duration_seconds",
		Help:    "Frame update latency in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	}), "scene_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	nodeUpdates, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scene_node_updates_total",
		Help: "Total number of transform-node updates across all frames.",
	}), "scene_node_updates_total")
	if err != nil {
		return nil, err
	}

	segments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_path_segments_total",
		Help: "Path segments processed per frame, labeled by clip result.",
	}, []string{"result"})
	segments, err = registerCounterVec(reg, segments, "scene_path_segments_total")
	if err != nil {
		return nil, err
	}

	fixesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geodetic_fixes_total",
		Help: "Geodetic fixes screened by the reliability predicate, labeled by outcome.",
	}, []string{"outcome"})
	fixesTotal, err = registerCounterVec(reg, fixesTotal, "geodetic_fixes_total")
	if err != nil {
		return nil, err
	}

	historySize, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geodetic_fix_history_size",
		Help: "Current number of buffered reliable fixes.",
	}), "geodetic_fix_history_size")
	if err != nil {
		return nil, err
	}

	entities, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scene_tracked_entities",
		Help: "Current number of registered tracked entities.",
	}), "scene_tracked_entities")
	if err != nil {
		return nil, err
	}

	return &SceneCollector{
		gatherer:         gatherer,
		FramesTotal:      frames,
		FrameDuration:    frameDuration,
		NodeUpdatesTotal: nodeUpdates,
		SegmentResults:   segments,
		FixesTotal:       fixesTotal,
		FixHistorySize:   historySize,
		TrackedEntities:  entities,
	}, nil
}

// ObserveFrame records one completed frame update.
func (c *SceneCollector) ObserveFrame(elapsed time.Duration, nodeUpdates int) {
	if c == nil {
		return
	}
	if c.FramesTotal != nil {
		c.FramesTotal.Inc()
	}
	if c.FrameDuration != nil {
		c.FrameDuration.Observe(elapsed.Seconds())
	}
	if c.NodeUpdatesTotal != nil {
		c.NodeUpdatesTotal.Add(float64(nodeUpdates))
	}
}

// ObserveSegments records how many segments survived clipping this frame
// and how many were dropped as outside the render-distance sphere.
func (c *SceneCollector) ObserveSegments(rendered, dropped int) {
	if c == nil || c.SegmentResults == nil {
		return
	}
	c.SegmentResults.WithLabelValues("rendered").Add(float64(rendered))
	c.SegmentResults.WithLabelValues("dropped").Add(float64(dropped))
}

// ObserveFix records one screened fix and the resulting history size.
func (c *SceneCollector) ObserveFix(accepted bool, historySize int) {
	if c == nil {
		return
	}
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	if c.FixesTotal != nil {
		c.FixesTotal.WithLabelValues(outcome).Inc()
	}
	if c.FixHistorySize != nil {
		c.FixHistorySize.Set(float64(historySize))
	}
}

// SetTrackedEntities updates the tracked-entity gauge.
func (c *SceneCollector) SetTrackedEntities(n int) {
	if c == nil || c.TrackedEntities == nil {
		return
	}
	c.TrackedEntities.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SceneCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
