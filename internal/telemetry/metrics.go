package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики одного запуска CLI.
//
// Используется собственный registry: процесс живёт один вызов,
// метрики выгружаются в файл для textfile collector node_exporter.
type Metrics struct {
	registry    *prometheus.Registry
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
	batchRows   *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tetractl_api_requests_total",
			Help: "Total management API requests by method and HTTP status",
		}, []string{"method", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tetractl_api_request_duration_seconds",
			Help:    "Management API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		batchRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tetractl_batch_rows_total",
			Help: "Batch rows processed by action and result",
		}, []string{"action", "result"}),
	}

	m.registry.MustRegister(m.apiRequests, m.apiDuration, m.batchRows)
	return m
}

// ObserveRequest учитывает один запрос к API. status=0 — транспортная ошибка.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}

	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(method, label).Inc()
	m.apiDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveBatchRow учитывает строку batch-файла.
func (m *Metrics) ObserveBatchRow(action, result string) {
	if m == nil {
		return
	}
	m.batchRows.WithLabelValues(action, result).Inc()
}

// Registry возвращает registry с метриками.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile записывает метрики в файл в текстовом формате Prometheus.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
