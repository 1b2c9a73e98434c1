package endpoint

import (
	"net/http"
	"time"

	"github.com/nao1215/apiscan/internal/discovery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scanMetrics はスキャンに関するPrometheusメトリクス。
type scanMetrics struct {
	registry *prometheus.Registry

	scans      *prometheus.CounterVec // 結果（success, failure）ごとのスキャン回数
	discovered prometheus.Counter     // 新規登録したエンドポイント数
	skipped    prometheus.Counter     // 既存のためスキップしたエンドポイント数
	duration   prometheus.Histogram   // スキャンの所要時間
}

// newScanMetrics はメトリクスを生成して専用のレジストリに登録する。
func newScanMetrics() *scanMetrics {
	m := &scanMetrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apiscan",
			Subsystem: "endpoint",
			Name:      "scans_total",
			Help:      "Number of document scans by result.",
		}, []string{"result"}),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "apiscan",
			Subsystem: "endpoint",
			Name:      "discovered_total",
			Help:      "Number of endpoints inserted by scans.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "apiscan",
			Subsystem: "endpoint",
			Name:      "skipped_total",
			Help:      "Number of discovered operations skipped because they already existed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "apiscan",
			Subsystem: "endpoint",
			Name:      "scan_duration_seconds",
			Help:      "Duration of document scans.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
	m.registry.MustRegister(
		m.scans,
		m.discovered,
		m.skipped,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// observe はスキャン結果をメトリクスに反映する。
func (m *scanMetrics) observe(result *discovery.ScanResult, elapsed time.Duration) {
	label := "failure"
	if result.Success {
		label = "success"
	}
	m.scans.WithLabelValues(label).Inc()
	m.discovered.Add(float64(result.NewCount))
	m.skipped.Add(float64(result.SkippedCount))
	m.duration.Observe(elapsed.Seconds())
}

// handler は /metrics 用のHTTPハンドラを返す。
func (m *scanMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
