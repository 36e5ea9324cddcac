package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the engine's Metrics interface using Prometheus.
type Recorder struct {
	assetsProcessed  *prometheus.CounterVec
	assetsSkipped    *prometheus.CounterVec
	signalsEmitted   *prometheus.CounterVec
	watchlistSignals *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	riskScore        *prometheus.GaugeVec
	runDuration      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		assetsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botbourse_assets_processed_total",
				Help: "Assets for which a full signal set was produced",
			},
			[]string{"asset_type"},
		),
		assetsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botbourse_assets_skipped_total",
				Help: "Assets skipped during a run, by reason",
			},
			[]string{"reason"},
		),
		signalsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botbourse_signals_total",
				Help: "Horizon signals produced, by horizon and trend",
			},
			[]string{"horizon", "trend"},
		),
		watchlistSignals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botbourse_watchlist_signals_total",
				Help: "Watchlist signals fired, by detector label",
			},
			[]string{"label"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botbourse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		riskScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "botbourse_risk_score",
				Help: "Latest risk score (1-5) per ticker",
			},
			[]string{"ticker"},
		),
		runDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botbourse_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordAssetProcessed records one fully signalled asset.
func (r *Recorder) RecordAssetProcessed(assetType string) {
	r.assetsProcessed.WithLabelValues(assetType).Inc()
}

// RecordAssetSkipped records an asset skipped for the given reason.
func (r *Recorder) RecordAssetSkipped(reason string) {
	r.assetsSkipped.WithLabelValues(reason).Inc()
}

// RecordSignal records a horizon signal emission.
func (r *Recorder) RecordSignal(horizon, trend string) {
	r.signalsEmitted.WithLabelValues(horizon, trend).Inc()
}

// RecordWatchlistSignal records a fired watchlist detector.
func (r *Recorder) RecordWatchlistSignal(label string) {
	r.watchlistSignals.WithLabelValues(label).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRiskScore records the latest risk score for a ticker.
func (r *Recorder) RecordRiskScore(ticker string, score int) {
	r.riskScore.WithLabelValues(ticker).Set(float64(score))
}

// RecordStageDuration records stage latency in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.runDuration.WithLabelValues(stage).Observe(seconds)
}
