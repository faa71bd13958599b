// Package harvest drives a page from navigation to persisted product and
// reviews.
package harvest

import (
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("reviewharvest/internal/harvest")
	meter  = otel.Meter("reviewharvest/internal/harvest")
)
