package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route pattern, method and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compost_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// HTTPDuration tracks request latency
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "compost_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ReadingsIngested counts sensor readings stored, by source (device, demo)
	ReadingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compost_readings_ingested_total",
		Help: "Total sensor readings stored by source",
	}, []string{"source"})

	// DemoReadingsSkipped counts demo readings dropped by time-proximity de-duplication
	DemoReadingsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compost_demo_readings_skipped_total",
		Help: "Demo readings skipped because another reading was within the dedup window",
	})

	// UnitFullNotifications counts unit-full push notifications by result
	UnitFullNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compost_unit_full_notifications_total",
		Help: "Unit-full push notifications by result",
	}, []string{"result"})

	// GeocodeCacheLookups counts geocoder cache lookups by result (hit, miss)
	GeocodeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compost_geocode_cache_lookups_total",
		Help: "Geocoder cache lookups by result",
	}, []string{"result"})
)
