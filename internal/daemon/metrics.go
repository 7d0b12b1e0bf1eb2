package daemon

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process counters on a private registry so tests can
// build isolated instances.
type Metrics struct {
	registry          *prom.Registry
	attempts          *prom.CounterVec
	remindersSent     prom.Counter
	remindersSuppress prom.Counter
}

// NewMetrics constructs and registers the counters.
func NewMetrics() *Metrics {
	reg := prom.NewRegistry()
	m := &Metrics{
		registry: reg,
		attempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fichabot",
			Name:      "checkin_attempts_total",
			Help:      "Check-in attempt outcomes by result",
		}, []string{"result"}),
		remindersSent: prom.NewCounter(prom.CounterOpts{
			Namespace: "fichabot",
			Name:      "reminders_sent_total",
			Help:      "Reminder prompts delivered to the user",
		}),
		remindersSuppress: prom.NewCounter(prom.CounterOpts{
			Namespace: "fichabot",
			Name:      "reminders_suppressed_total",
			Help:      "Reminder fires skipped because the day was already handled",
		}),
	}
	reg.MustRegister(m.attempts, m.remindersSent, m.remindersSuppress)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// RecordAttempt implements checkin.Recorder.
func (m *Metrics) RecordAttempt(result string) {
	m.attempts.WithLabelValues(result).Inc()
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
