package metrics

import "github.com/prometheus/client_golang/prometheus"

// Run-level counters and gauges, exposed on /metrics.
var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pc_monitor_runs_total",
		Help: "Monitoring runs by outcome status.",
	}, []string{"status"})

	AlertsTriggeredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pc_monitor_alerts_triggered_total",
		Help: "Violations that triggered alert dispatch.",
	})

	DeliveryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pc_monitor_delivery_failures_total",
		Help: "Alerts with at least one failed channel delivery.",
	})

	DriversInPC = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pc_monitor_drivers_in_pc",
		Help: "Drivers in Personal Conveyance at the last completed run.",
	})
)

func init() {
	prometheus.MustRegister(RunsTotal, AlertsTriggeredTotal, DeliveryFailuresTotal, DriversInPC)
}
