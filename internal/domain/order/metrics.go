package order

import (
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	created  metric.Int64Counter
	failed   metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	created, err := meter.Int64Counter("pos.orders.created",
		metric.WithDescription("Orders committed from carts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	failed, err := meter.Int64Counter("pos.orders.failed",
		metric.WithDescription("Order creations rolled back, by error kind"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders failed counter")
	}
	duration, err := meter.Float64Histogram("pos.orders.create.duration",
		metric.WithDescription("Duration of the cart to order transaction"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "order duration histogram")
	}
	return &metrics{
		created:  created,
		failed:   failed,
		duration: duration,
	}, nil
}
