package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestSeconds *prometheus.HistogramVec
	RouteRequests      *prometheus.CounterVec
	RouteSeconds       *prometheus.HistogramVec
	RouteCache         *prometheus.CounterVec
	Arrivals           prometheus.Counter
	ActiveVisits       prometheus.Gauge
	ActiveSessions     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		HTTPRequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tour_http_request_duration_seconds",
			Help:    "Duration of HTTP requests handled by the API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RouteRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tour_route_requests_total",
			Help: "Total number of route computations by provider, mode and outcome.",
		}, []string{"provider", "mode", "status"}),
		RouteSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tour_route_request_duration_seconds",
			Help:    "Duration of requests to the routing provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "mode"}),
		RouteCache: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tour_route_cache_lookups_total",
			Help: "Route cache lookups by result.",
		}, []string{"result"}),
		Arrivals: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tour_poi_arrivals_total",
			Help: "Total number of POI arrival events fired.",
		}),
		ActiveVisits: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tour_active_visits",
			Help: "Current number of running visitor sessions.",
		}),
		ActiveSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tour_active_authoring_sessions",
			Help: "Current number of open authoring sessions.",
		}),
	}
}
