package feed

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/scout-helper/tracker/internal/feed"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
