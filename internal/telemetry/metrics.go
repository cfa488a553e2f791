// Package telemetry provides structured logging, Prometheus metrics, and a
// bridge from the logger to the emit.Emitter event bus; the driver
// (internal/seq) takes an emitter and a Metrics through seq.WithTelemetry.
package telemetry

import (
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ntsseq/sequentializer/internal/telemetry/emit"
)

// Metrics is the Prometheus surface for a sequentializer deployment:
// one process converting many inputs, scraped the usual way.
//
//  1. builds_total (counter): runs started, labeled run_id, mode ("simple"
//     or "por").
//  2. control_states (gauge): size of the product-state table for the most
//     recently completed build, labeled run_id.
//  3. por_fallbacks_total (counter): number of control states where POR
//     found no valid ample set and fell back to full interleaving.
//  4. build_duration_ms (histogram): wall-clock time of a Sequentialize call.
type Metrics struct {
	BuildsTotal       *prometheus.CounterVec
	ControlStates     *prometheus.GaugeVec
	PORFallbacksTotal *prometheus.CounterVec
	BuildDurationMs   *prometheus.HistogramVec
}

// NewMetrics registers the sequentializer's metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ntsseq",
			Name:      "builds_total",
			Help:      "Number of sequentialization runs started.",
		}, []string{"run_id", "mode"}),
		ControlStates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ntsseq",
			Name:      "control_states",
			Help:      "Number of interned control states in the most recent build.",
		}, []string{"run_id"}),
		PORFallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ntsseq",
			Name:      "por_fallbacks_total",
			Help:      "Number of control states where POR fell back to full interleaving.",
		}, []string{"run_id"}),
		BuildDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ntsseq",
			Name:      "build_duration_ms",
			Help:      "Wall-clock duration of a Sequentialize call.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"run_id"}),
	}
}

// Logger is the ambient structured-logging surface, matching the teacher
// pack's hand-rolled logger convention rather than reaching for a new
// third-party logging library the corpus never imports: std log with a
// consistent key=value shape is already how this stack's ambient code logs
// (see graph/*.go's use of the standard log package); see DESIGN.md.
type Logger struct {
	*log.Logger
}

// NewLogger returns a Logger writing key=value lines to os.Stderr, prefixed
// with the component name.
func NewLogger(component string) *Logger {
	return &Logger{Logger: log.New(os.Stderr, "["+component+"] ", log.LstdFlags|log.Lmicroseconds)}
}

// Bridge returns an emit.Emitter that also writes every event through l, so
// a run configured with WithTelemetry gets both a trace/metrics view and a
// conventional log line per event.
func (l *Logger) Bridge() emit.Emitter {
	return emitterFunc(func(e emit.Event) {
		l.Printf("stage=%s msg=%s meta=%v run_id=%s", e.Stage, e.Msg, e.Meta, e.RunID)
	})
}

type emitterFunc func(emit.Event)

func (f emitterFunc) Emit(e emit.Event) { f(e) }
