package ports

import (
	"context"

	"github.com/bft-labs/mangaship/internal/domain"
)

// TelemetryReporter delivers page delivery reports to the origin service.
type TelemetryReporter interface {
	// Report sends one delivery report and waits for it to be accepted.
	// A non-nil error means the report was not delivered.
	Report(ctx context.Context, report domain.DeliveryReport) error
}
