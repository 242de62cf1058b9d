package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements GenerationHooks and ComposeHooks with Prometheus
// collectors. The CLI is a batch job, so metrics are written to a
// node-exporter textfile with [Prometheus.WriteTextfile] rather than served.
type Prometheus struct {
	registry *prometheus.Registry

	attempts     *prometheus.CounterVec
	accepted     *prometheus.GaugeVec
	catalogSecs  *prometheus.HistogramVec
	projectSecs  *prometheus.HistogramVec
	failures     *prometheus.CounterVec
	images       *prometheus.CounterVec
	imageBytes   *prometheus.CounterVec
	imageSeconds *prometheus.HistogramVec
}

// NewPrometheus registers the traitmix collectors on reg. A nil reg gets a
// fresh registry.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prometheus{
		registry: reg,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traitmix_attempts_total",
			Help: "Sampling attempts by outcome.",
		}, []string{"project", "outcome"}),
		accepted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "traitmix_accepted_combinations",
			Help: "Unique combinations accepted in the last run.",
		}, []string{"project"}),
		catalogSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "traitmix_catalog_load_seconds",
			Help:    "Time spent building a trait catalog.",
			Buckets: prometheus.DefBuckets,
		}, []string{"project"}),
		projectSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "traitmix_generation_seconds",
			Help:    "Time spent in a project's retry loop.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"project"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traitmix_project_failures_total",
			Help: "Projects that ended with an error, by stage.",
		}, []string{"project", "stage"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traitmix_images_written_total",
			Help: "Composite images written.",
		}, []string{"project"}),
		imageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traitmix_image_bytes_total",
			Help: "Bytes of encoded composite images.",
		}, []string{"project"}),
		imageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "traitmix_image_write_seconds",
			Help:    "Time to compose and encode one image.",
			Buckets: prometheus.DefBuckets,
		}, []string{"project"}),
	}
	reg.MustRegister(p.attempts, p.accepted, p.catalogSecs, p.projectSecs,
		p.failures, p.images, p.imageBytes, p.imageSeconds)
	return p
}

// Registry returns the registry the collectors are registered on.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// OnCatalogLoaded observes the load time or counts a catalog failure.
func (p *Prometheus) OnCatalogLoaded(_ context.Context, project string, _ int, d time.Duration, err error) {
	if err != nil {
		p.failures.WithLabelValues(project, "catalog").Inc()
		return
	}
	p.catalogSecs.WithLabelValues(project).Observe(d.Seconds())
}

// OnAttempt counts one attempt.
func (p *Prometheus) OnAttempt(_ context.Context, project string, outcome Outcome) {
	p.attempts.WithLabelValues(project, string(outcome)).Inc()
}

// OnProjectComplete records the accepted count and loop duration.
func (p *Prometheus) OnProjectComplete(_ context.Context, project string, accepted, _ int, d time.Duration, err error) {
	p.accepted.WithLabelValues(project).Set(float64(accepted))
	p.projectSecs.WithLabelValues(project).Observe(d.Seconds())
	if err != nil {
		p.failures.WithLabelValues(project, "generate").Inc()
	}
}

// OnImageWritten counts one image.
func (p *Prometheus) OnImageWritten(_ context.Context, project string, bytes int, d time.Duration, err error) {
	if err != nil {
		p.failures.WithLabelValues(project, "compose").Inc()
		return
	}
	p.images.WithLabelValues(project).Inc()
	p.imageBytes.WithLabelValues(project).Add(float64(bytes))
	p.imageSeconds.WithLabelValues(project).Observe(d.Seconds())
}

// WriteTextfile writes the current metrics to path in text exposition
// format. The file is replaced atomically.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

var (
	_ GenerationHooks = (*Prometheus)(nil)
	_ ComposeHooks    = (*Prometheus)(nil)
)
