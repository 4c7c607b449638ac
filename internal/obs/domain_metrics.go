package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingRecomputeTotal counts derived-price recomputations by entity and outcome.
	PricingRecomputeTotal *prometheus.CounterVec
	// CascadeFanoutTotal counts fanout decisions taken after a dish reprice.
	CascadeFanoutTotal *prometheus.CounterVec
	// StaleCartsTotal counts carts flagged for lazy recomputation.
	StaleCartsTotal prometheus.Counter
	// CartRefreshDuration records full cart refresh latency in milliseconds.
	CartRefreshDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers pricing-domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingRecomputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_recompute_total",
			Help:      "Count of derived price recomputations by entity and result.",
		}, []string{"entity", "result"})
		CascadeFanoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_cascade_fanout_total",
			Help:      "Count of cascade fanout outcomes after a dish reprice.",
		}, []string{"result"})
		StaleCartsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_stale_carts_total",
			Help:      "Number of carts marked stale pending lazy recomputation.",
		})
		CartRefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_cart_refresh_duration_ms",
			Help:      "Latency of full cart repricing in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		reg.MustRegister(PricingRecomputeTotal, CascadeFanoutTotal, StaleCartsTotal, CartRefreshDuration)
	})
}
