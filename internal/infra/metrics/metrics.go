// Package metrics exposes storefront counters on a dedicated Prometheus
// registry.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics implements the recorder interfaces of the cart, catalog and
// checkout services.
type Metrics struct {
	registry *prometheus.Registry

	cartMutations    *prometheus.CounterVec
	cartItems        prometheus.Histogram
	catalogFetches   *prometheus.CounterVec
	checkoutOutcomes *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		cartItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_items",
			Help:      "Item count of carts after each save.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetches_total",
			Help:      "Catalog loads by result (ok, empty, fallback).",
		}, []string{"result"}),
		checkoutOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_outcomes_total",
			Help:      "Finished checkout attempts by final state.",
		}, []string{"state"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cartMutations,
		m.cartItems,
		m.catalogFetches,
		m.checkoutOutcomes,
	)
	return m
}

func (m *Metrics) CartMutation(op string) {
	m.cartMutations.WithLabelValues(op).Inc()
}

// CartSize has the shape of the cart repository's badge callback.
func (m *Metrics) CartSize(_ context.Context, _ string, count int) {
	m.cartItems.Observe(float64(count))
}

func (m *Metrics) CatalogFetch(result string) {
	m.catalogFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) CheckoutOutcome(state string) {
	m.checkoutOutcomes.WithLabelValues(state).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
