// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sale rejection reasons.
const (
	ReasonInsufficientStock = "insufficient_stock"
	ReasonNotFound          = "not_found"
	ReasonInvalid           = "invalid"
	ReasonError             = "error"
)

var (
	// SalesRecorded counts recorded sales.
	SalesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicshop_sales_recorded_total",
		Help: "Total number of sales recorded",
	})

	// UnitsSold counts units moved from stock to sales.
	UnitsSold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicshop_units_sold_total",
		Help: "Total number of album units sold",
	})

	// SalesRejected counts sales that were not recorded.
	// Labels:
	//   - reason: insufficient_stock, not_found, invalid, error
	SalesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicshop_sales_rejected_total",
			Help: "Total number of rejected sales by reason",
		},
		[]string{"reason"},
	)

	// Rollovers counts yearly rollovers.
	Rollovers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicshop_rollovers_total",
		Help: "Total number of yearly sales rollovers",
	})

	// RolloverInventories counts inventories changed by rollovers.
	RolloverInventories = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicshop_rollover_inventories_total",
		Help: "Total number of inventories archived by yearly rollovers",
	})

	// LoginAttempts counts logins by outcome (success, failure).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicshop_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// HTTPRequests counts API requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicshop_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration measures API request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicshop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// RecordSale records a successful sale of quantity units.
func RecordSale(quantity int) {
	SalesRecorded.Inc()
	UnitsSold.Add(float64(quantity))
}

// RecordRollover records a rollover that changed affected inventories.
func RecordRollover(affected int64) {
	Rollovers.Inc()
	RolloverInventories.Add(float64(affected))
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
