package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricMarkerStaleness = "markers.cache_age_seconds"
	MetricGeocodeLatency  = "geocoding.request_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricLocationSaves  = "business.locations_saved"
	MetricPickupRequests = "business.pickup_requests"
)
