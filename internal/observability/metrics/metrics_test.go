package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveTurn("greeting")
	m.ObserveTurn("general")
	m.ObserveGenerationLatency(0.5)
	m.ObserveCRMSync("success")
}

func TestRetrievalMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRetrievalMetrics(reg)
	m.ObserveLoad("success")
	m.ObserveLoad("failure")
	m.ObserveUnload()
	m.ObserveQuery("hit")
}

func TestMetricsNilSafe(t *testing.T) {
	var c *ChatMetrics
	c.ObserveTurn("general")
	c.ObserveGenerationLatency(0.1)
	c.ObserveCRMSync("error")

	var r *RetrievalMetrics
	r.ObserveLoad("success")
	r.ObserveUnload()
	r.ObserveQuery("sentinel")
}
