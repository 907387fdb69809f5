package telemetry

import "github.com/prometheus/client_golang/prometheus"

var PricingRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "pricing",
		Name:      "runs_total",
		Help:      "Total number of calendar builder runs by strategy and outcome.",
	},
	[]string{"strategy", "outcome"},
)

var PricingDaysWrittenTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "pricing",
		Name:      "days_written_total",
		Help:      "Total number of price-override days written by the calendar builder.",
	},
)

var PricingDaysLockedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "pricing",
		Name:      "days_locked_total",
		Help:      "Total number of locked days preserved by the calendar builder.",
	},
)

var PMSPushTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "pms",
		Name:      "push_total",
		Help:      "Total number of PMS gateway pushes by mutation class and outcome.",
	},
	[]string{"mutation", "outcome"},
)

var BillingReconciliationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "billing",
		Name:      "reconciliations_total",
		Help:      "Total number of billing reconciliations by outcome.",
	},
	[]string{"outcome"},
)

var BillingProrationAmountTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "billing",
		Name:      "proration_amount_cents_total",
		Help:      "Sum of one-off proration invoice item amounts emitted, in cents.",
	},
)

var SchedulerTicksTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "scheduler",
		Name:      "ticks_total",
		Help:      "Total number of hourly scheduler ticks processed.",
	},
)

var SchedulerTenantOutcomeTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "scheduler",
		Name:      "tenant_outcome_total",
		Help:      "Total number of per-tenant scheduler runs by outcome.",
	},
	[]string{"outcome"},
)

var WebhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Total number of payment webhook events processed by type.",
	},
	[]string{"event_type"},
)

var OpsAlertsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pricingcore",
		Subsystem: "ops",
		Name:      "alerts_total",
		Help:      "Total number of ops alerts posted for swallowed failures.",
	},
	[]string{"component"},
)

// All returns all pricingcore-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		PricingRunsTotal,
		PricingDaysWrittenTotal,
		PricingDaysLockedTotal,
		PMSPushTotal,
		BillingReconciliationsTotal,
		BillingProrationAmountTotal,
		SchedulerTicksTotal,
		SchedulerTenantOutcomeTotal,
		WebhookEventsTotal,
		OpsAlertsTotal,
	}
}
