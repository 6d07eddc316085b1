// Package observability exposes relay measurements as Prometheus collectors.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_relay"

// Metrics implements event.Recorder on top of Prometheus collectors.
type Metrics struct {
	gatherer          prometheus.Gatherer
	liveConnections   prometheus.Gauge
	onlineIdentities  prometheus.Gauge
	messagesRouted    *prometheus.CounterVec
	messagesRejected  *prometheus.CounterVec
	outboundDropped   prometheus.Counter
	presenceDropped   prometheus.Counter
	messagesCensored  *prometheus.CounterVec
	workerRestarts    *prometheus.CounterVec
	channelLength     *prometheus.GaugeVec
	channelCapacity   *prometheus.GaugeVec
	processCPU        prometheus.Gauge
	processRSS        prometheus.Gauge
	processGoroutines prometheus.Gauge
}

// NewMetrics registers every collector on registry.
// Tests pass a fresh prometheus.NewRegistry() to stay isolated.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: registry,
		liveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "live_connections",
			Help: "Number of registered transport connections.",
		}),
		onlineIdentities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "online_identities",
			Help: "Number of identities with at least one live connection.",
		}),
		messagesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_routed_total",
			Help: "Messages persisted and delivered, by delivery kind.",
		}, []string{"delivery"}),
		messagesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_rejected_total",
			Help: "Send requests rejected or failed, by error code.",
		}, []string{"code"}),
		outboundDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "outbound_dropped_total",
			Help: "Outbound events dropped because a connection queue was full.",
		}),
		presenceDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "presence_dropped_total",
			Help: "User status transitions not broadcast because the fanout queue stayed full.",
		}),
		messagesCensored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_censored_total",
			Help: "Stored messages with censored words, by detected language.",
		}, []string{"lang"}),
		workerRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "worker_restarts_total",
			Help: "Supervised workers restarted after a panic.",
		}, []string{"worker"}),
		channelLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "channel_length",
			Help: "Buffered events waiting in internal channels.",
		}, []string{"channel"}),
		channelCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "channel_capacity",
			Help: "Capacity of internal channels.",
		}, []string{"channel"}),
		processCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "process_cpu_percent",
			Help: "CPU usage of the relay process.",
		}),
		processRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "process_rss_bytes",
			Help: "Resident memory of the relay process.",
		}),
		processGoroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "process_goroutines",
			Help: "Goroutines of the relay process.",
		}),
	}
	registry.MustRegister(
		m.liveConnections, m.onlineIdentities, m.messagesRouted, m.messagesRejected,
		m.outboundDropped, m.presenceDropped, m.messagesCensored, m.workerRestarts,
		m.channelLength, m.channelCapacity,
		m.processCPU, m.processRSS, m.processGoroutines,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) WorkerRestarted(workerName string) {
	m.workerRestarts.WithLabelValues(workerName).Inc()
}

func (m *Metrics) ChannelUsage(channelName string, length, capacity int) {
	m.channelLength.WithLabelValues(channelName).Set(float64(length))
	m.channelCapacity.WithLabelValues(channelName).Set(float64(capacity))
}

func (m *Metrics) ProcessUsage(cpuPercent float64, rssBytes uint64, goroutines int) {
	m.processCPU.Set(cpuPercent)
	m.processRSS.Set(float64(rssBytes))
	m.processGoroutines.Set(float64(goroutines))
}

func (m *Metrics) ConnectionOpened() { m.liveConnections.Inc() }

func (m *Metrics) ConnectionClosed() { m.liveConnections.Dec() }

func (m *Metrics) OnlineIdentities(count int) { m.onlineIdentities.Set(float64(count)) }

func (m *Metrics) MessageRouted(delivery string) {
	m.messagesRouted.WithLabelValues(delivery).Inc()
}

func (m *Metrics) MessageRejected(code string) {
	m.messagesRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) OutboundDropped() { m.outboundDropped.Inc() }

func (m *Metrics) PresenceDropped() { m.presenceDropped.Inc() }

func (m *Metrics) MessageCensored(language string) {
	m.messagesCensored.WithLabelValues(language).Inc()
}
