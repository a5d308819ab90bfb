package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_http_requests_total",
}, []string{"action", "method"})
var InvalidHttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_invalid_http_requests_total",
}, []string{"action", "method"})
var HttpResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_http_responses_total",
}, []string{"action", "method", "statusCode"})
var HttpResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "converter_http_response_time_seconds",
}, []string{"action", "method"})
var BatchesSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_batches_submitted_total",
}, []string{"kind"})
var ConversionsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_conversions_total",
}, []string{"kind", "status"})
var ConversionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_conversion_state_transitions_total",
}, []string{"kind", "from", "to"})
var ConversionTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "converter_conversion_time_seconds",
	Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
}, []string{"kind", "status"})
var ArtifactBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_artifact_bytes_total",
}, []string{"artifact"})
var ArchivesServed = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "converter_archives_served_total",
})
var ArchiveEntriesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "converter_archive_entries_skipped_total",
}, []string{"reason"})
var RegistryEntries = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "converter_registry_entries",
})
var QueueRunningWorkers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "converter_queue_running_workers",
}, []string{"queue"})

func init() {
	prometheus.MustRegister(HttpRequests)
	prometheus.MustRegister(InvalidHttpRequests)
	prometheus.MustRegister(HttpResponses)
	prometheus.MustRegister(HttpResponseTime)
	prometheus.MustRegister(BatchesSubmitted)
	prometheus.MustRegister(ConversionsFinished)
	prometheus.MustRegister(ConversionTransitions)
	prometheus.MustRegister(ConversionTime)
	prometheus.MustRegister(ArtifactBytes)
	prometheus.MustRegister(ArchivesServed)
	prometheus.MustRegister(ArchiveEntriesSkipped)
	prometheus.MustRegister(RegistryEntries)
	prometheus.MustRegister(QueueRunningWorkers)
}
