package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_events_created_total",
			Help: "Total events created",
		},
	)

	ticketsMinted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_tickets_minted_total",
			Help: "Total tickets minted",
		},
	)

	ticketsValidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_tickets_validated_total",
			Help: "Total tickets checked in",
		},
	)

	ticketsRefunded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_tickets_refunded_total",
			Help: "Total tickets refunded",
		},
	)

	salesVolume = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_sales_volume_base_units",
			Help: "Cumulative gross ticket sales in base currency units",
		},
	)

	refundVolume = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_refund_volume_base_units",
			Help: "Cumulative refunds paid out in base currency units",
		},
	)

	withdrawnVolume = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_withdrawn_volume_base_units",
			Help: "Cumulative organizer payouts in base currency units",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatepass_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatepass_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func EventCreated() {
	eventsCreated.Inc()
}

func TicketMinted(price int64) {
	ticketsMinted.Inc()
	salesVolume.Add(float64(price))
}

func TicketValidated(count int) {
	ticketsValidated.Add(float64(count))
}

func TicketRefunded(amount int64) {
	ticketsRefunded.Inc()
	refundVolume.Add(float64(amount))
}

func RevenueWithdrawn(amount int64) {
	withdrawnVolume.Add(float64(amount))
}

// HTTPMiddleware records request counts and latencies labeled by route
// template so path parameters do not explode the cardinality.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
