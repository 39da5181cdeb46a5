package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the per-turn chat pipeline.
type ChatMetrics struct {
	turnsTotal        *prometheus.CounterVec
	generationLatency prometheus.Histogram
	crmSyncTotal      *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by decision path",
		}, []string{"path"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "realty",
			Subsystem: "chat",
			Name:      "generation_latency_seconds",
			Help:      "Latency of generation calls",
			Buckets:   prometheus.DefBuckets,
		}),
		crmSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "chat",
			Name:      "crm_sync_total",
			Help:      "Total CRM sync attempts by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.generationLatency, m.crmSyncTotal)
	return m
}

func (m *ChatMetrics) ObserveTurn(path string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(path).Inc()
}

func (m *ChatMetrics) ObserveGenerationLatency(seconds float64) {
	if m == nil {
		return
	}
	m.generationLatency.Observe(seconds)
}

func (m *ChatMetrics) ObserveCRMSync(status string) {
	if m == nil {
		return
	}
	m.crmSyncTotal.WithLabelValues(status).Inc()
}

// RetrievalMetrics tracks the retrieval state machine.
type RetrievalMetrics struct {
	loadsTotal   *prometheus.CounterVec
	unloadsTotal prometheus.Counter
	queriesTotal *prometheus.CounterVec
}

func NewRetrievalMetrics(reg prometheus.Registerer) *RetrievalMetrics {
	m := &RetrievalMetrics{
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "retrieval",
			Name:      "loads_total",
			Help:      "Total index/encoder load attempts by outcome",
		}, []string{"status"}),
		unloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "retrieval",
			Name:      "unloads_total",
			Help:      "Total idle unloads of the index/encoder",
		}),
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "retrieval",
			Name:      "queries_total",
			Help:      "Total retrieval queries by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.loadsTotal, m.unloadsTotal, m.queriesTotal)
	return m
}

func (m *RetrievalMetrics) ObserveLoad(status string) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(status).Inc()
}

func (m *RetrievalMetrics) ObserveUnload() {
	if m == nil {
		return
	}
	m.unloadsTotal.Inc()
}

func (m *RetrievalMetrics) ObserveQuery(status string) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(status).Inc()
}
