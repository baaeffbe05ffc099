// Package telemetry bootstraps OpenTelemetry metrics for the server.
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Shutdown flushes and stops the installed providers.
type Shutdown func(context.Context) error

// Init installs an OTLP/gRPC metric exporter as the global meter provider.
// With an empty endpoint nothing is installed and the returned Shutdown is a no-op.
func Init(ctx context.Context, endpoint, serviceName string) (Shutdown, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpointURL(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// OpenDB opens an instrumented database handle and registers its pool stats.
func OpenDB(driverName, dsn string) (*sql.DB, error) {
	system := semconv.DBSystemKey.String(driverSystem(driverName))

	db, err := otelsql.Open(driverName, dsn, otelsql.WithAttributes(system))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(system))
	return db, nil
}

func driverSystem(driverName string) string {
	switch driverName {
	case "postgres":
		return "postgresql"
	case "sqlite3":
		return "sqlite"
	default:
		return driverName
	}
}
