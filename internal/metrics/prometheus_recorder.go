package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	renderDuration   prom.Histogram
	documents        *prom.CounterVec
	findings         *prom.CounterVec
	fragmentFailures *prom.CounterVec
	partialFailures  prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.renderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "markweave",
			Name:      "render_duration_seconds",
			Help:      "Duration of one document preprocessing run",
			Buckets:   prom.DefBuckets,
		})
		pr.documents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "markweave",
			Name:      "documents_total",
			Help:      "Processed documents by result",
		}, []string{"result"})
		pr.findings = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "markweave",
			Name:      "validation_findings_total",
			Help:      "Validation findings by severity and whether they broke the build",
		}, []string{"severity", "breaking"})
		pr.fragmentFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "markweave",
			Name:      "fragment_load_failures_total",
			Help:      "Schema fragment files that failed to load, by kind",
		}, []string{"kind"})
		pr.partialFailures = prom.NewCounter(prom.CounterOpts{
			Namespace: "markweave",
			Name:      "partial_load_failures_total",
			Help:      "Partial files that failed to read or parse",
		})
		reg.MustRegister(pr.renderDuration, pr.documents, pr.findings, pr.fragmentFailures, pr.partialFailures)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentResult(result ResultLabel) {
	if p == nil || p.documents == nil {
		return
	}
	p.documents.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncValidationFinding(severity string, breaking bool) {
	if p == nil || p.findings == nil {
		return
	}
	p.findings.WithLabelValues(severity, strconv.FormatBool(breaking)).Inc()
}

func (p *PrometheusRecorder) IncFragmentLoadFailure(kind string) {
	if p == nil || p.fragmentFailures == nil {
		return
	}
	p.fragmentFailures.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncPartialLoadFailure() {
	if p == nil || p.partialFailures == nil {
		return
	}
	p.partialFailures.Inc()
}
