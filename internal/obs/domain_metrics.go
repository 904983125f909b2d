package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
	// CheckoutDuration records checkout transaction latency in milliseconds.
	CheckoutDuration prometheus.Histogram
	// StockConflictTotal counts commits rejected because stock ran out.
	StockConflictTotal prometheus.Counter
	// SaleCancelledTotal counts cancelled sales.
	SaleCancelledTotal prometheus.Counter
	// InvoiceRenderTotal counts invoice render outcomes by format.
	InvoiceRenderTotal *prometheus.CounterVec
	// LowStockAlertTotal counts low stock alerts emitted after checkout.
	LowStockAlertTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout commit outcomes.",
		}, []string{"result"})
		CheckoutDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Checkout transaction latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		})
		StockConflictTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_conflict_total",
			Help:      "Commits aborted because a product ran out of stock.",
		})
		SaleCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_cancelled_total",
			Help:      "Number of sales cancelled with stock restored.",
		})
		InvoiceRenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_render_total",
			Help:      "Invoice render outcomes by format.",
		}, []string{"format", "result"})
		LowStockAlertTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_stock_alert_total",
			Help:      "Low stock alerts emitted after checkout.",
		})

		for _, c := range []prometheus.Collector{
			CheckoutTotal, CheckoutDuration, StockConflictTotal,
			SaleCancelledTotal, InvoiceRenderTotal, LowStockAlertTotal,
		} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}
