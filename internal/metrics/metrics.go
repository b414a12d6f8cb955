// Package metrics exposes render progress as Prometheus metrics on a
// private registry.
package metrics

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/cwbudde/algo-host/render"
)

const namespace = "hostrender"

// Render collects per-mode block counts, block durations and rendered
// frames. It implements render.Observer.
type Render struct {
	registry *prometheus.Registry

	blocks       *prometheus.CounterVec
	blockSeconds *prometheus.HistogramVec
	frames       *prometheus.CounterVec
	renders      *prometheus.CounterVec
}

var _ render.Observer = (*Render)(nil)

// New registers the render metrics on a fresh registry.
func New() *Render {
	r := &Render{
		registry: prometheus.NewRegistry(),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Number of processed blocks.",
		}, []string{"mode"}),
		blockSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_seconds",
			Help:      "Wall time spent processing one block.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"mode"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Number of rendered output frames.",
		}, []string{"mode"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Number of finished renders.",
		}, []string{"mode"}),
	}
	r.registry.MustRegister(r.blocks, r.blockSeconds, r.frames, r.renders)
	return r
}

// Registry returns the registry holding the render metrics.
func (r *Render) Registry() *prometheus.Registry { return r.registry }

// BlockRendered implements render.Observer.
func (r *Render) BlockRendered(mode render.Mode, _ int, elapsed time.Duration) {
	r.blocks.WithLabelValues(string(mode)).Inc()
	r.blockSeconds.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

// RenderFinished implements render.Observer.
func (r *Render) RenderFinished(mode render.Mode, _, frames int) {
	r.frames.WithLabelValues(string(mode)).Add(float64(frames))
	r.renders.WithLabelValues(string(mode)).Inc()
}

// WriteText writes the metrics in the Prometheus text exposition format.
func (r *Render) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile replaces path with the text exposition of the metrics.
func (r *Render) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := r.WriteText(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
