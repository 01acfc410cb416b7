package patreon

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("goalietron.lib.patreon")
var meter = otel.Meter("goalietron.lib.patreon")

var cacheHits, _ = meter.Int64Counter("patreon.cache_hits")
var cacheMisses, _ = meter.Int64Counter("patreon.cache_misses")
var fetchFailures, _ = meter.Int64Counter("patreon.fetch_failures")
var staleFallbacks, _ = meter.Int64Counter("patreon.stale_fallbacks")

const (
	report_client_fetch_page     = "client.fetch-page"
	report_client_extract        = "client.extract"
	report_client_cache_read     = "client.cache-read"
	report_client_cache_write    = "client.cache-write"
	report_client_stale_fallback = "client.stale-fallback"
	report_client_user_id        = "client.user-id"
)
