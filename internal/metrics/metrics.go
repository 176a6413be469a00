package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supply-agent/internal/core"
)

// Registry owns the process metrics and implements core.Observer.
type Registry struct {
	reg *prometheus.Registry

	PlanCycles       *prometheus.CounterVec
	PlanItems        prometheus.Histogram
	DelegateOutcomes *prometheus.CounterVec
	DelegateLatency  prometheus.Histogram
	ActionsExecuted  *prometheus.CounterVec
	RecordsSkipped   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

var _ core.Observer = (*Registry)(nil)

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	planCycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_plan_cycles_total",
		Help: "Acquisition plan cycles by strategy.",
	}, []string{"strategy"})
	planItems := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "supply_plan_items",
		Help:    "Items per generated acquisition plan.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
	})
	delegateOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_delegate_outcomes_total",
		Help: "Reasoning delegate calls by terminal outcome.",
	}, []string{"outcome"})
	delegateLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "supply_delegate_latency_seconds",
		Help:    "Reasoning service round-trip time.",
		Buckets: prometheus.DefBuckets,
	})
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_actions_executed_total",
		Help: "Executed plan lines by action and result.",
	}, []string{"action", "result"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_records_skipped_total",
		Help: "Stock records rejected at the store boundary.",
	}, []string{"reason"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_http_requests_total",
		Help: "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supply_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	r.MustRegister(planCycles, planItems, delegateOutcomes, delegateLatency, actions, skipped, httpRequests, httpDuration)
	return &Registry{
		reg:              r,
		PlanCycles:       planCycles,
		PlanItems:        planItems,
		DelegateOutcomes: delegateOutcomes,
		DelegateLatency:  delegateLatency,
		ActionsExecuted:  actions,
		RecordsSkipped:   skipped,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) PlanCycle(strategy core.PlanStrategy, items int) {
	r.PlanCycles.WithLabelValues(string(strategy)).Inc()
	r.PlanItems.Observe(float64(items))
}

func (r *Registry) DelegateOutcome(outcome core.DelegateOutcome, latency time.Duration) {
	r.DelegateOutcomes.WithLabelValues(string(outcome)).Inc()
	if latency > 0 {
		r.DelegateLatency.Observe(latency.Seconds())
	}
}

func (r *Registry) ActionExecuted(action core.Action, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.ActionsExecuted.WithLabelValues(string(action), result).Inc()
}

func (r *Registry) RecordSkipped(reason string) {
	r.RecordsSkipped.WithLabelValues(reason).Inc()
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	r.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
