// Package ledger implements the trip ledger: trip lifecycle, per-currency
// balances, the expense ledger and budget threshold evaluation.
//
// Every mutation runs in one store transaction. A failed mutation leaves the
// trip, its currencies, expenses and category budgets exactly as they were.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"

// Options configures a Ledger.
type Options struct {
	// ThresholdPercent sets the overall notification threshold as a share of
	// the budget limit when a trip is created or its limit changes. Zero means 80.
	ThresholdPercent int
}

// Ledger is the entry point for every trip, currency, expense and budget operation.
type Ledger struct {
	store          store.Store
	thresholdRatio decimal.Decimal
	tracer         trace.Tracer

	expensesRecorded     metric.Int64Counter
	notificationsEmitted metric.Int64Counter
	mutationsRejected    metric.Int64Counter
}

// New creates a Ledger over the given store.
func New(s store.Store, opts Options) *Ledger {
	ratio := models.DefaultThresholdRatio
	if opts.ThresholdPercent > 0 {
		ratio = decimal.NewFromInt(int64(opts.ThresholdPercent)).Div(hundred)
	}

	l := &Ledger{
		store:          s,
		thresholdRatio: ratio,
		tracer:         otel.Tracer(instrumentationName),
	}
	l.initMetrics(otel.Meter(instrumentationName))
	return l
}

func (l *Ledger) initMetrics(meter metric.Meter) {
	fallback := noop.NewMeterProvider().Meter(instrumentationName)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Log.Warn().Err(err).Str("instrument", name).Msg("Failed to create counter")
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	l.expensesRecorded = counter("ledger.expenses.recorded", "Expenses recorded")
	l.notificationsEmitted = counter("ledger.notifications.emitted", "Budget notifications emitted")
	l.mutationsRejected = counter("ledger.mutations.rejected", "Ledger mutations that failed and were rolled back")
}

// ThresholdRatio returns the share of a limit used for the overall threshold.
func (l *Ledger) ThresholdRatio() decimal.Decimal {
	return l.thresholdRatio
}

// mutate runs fn in one transaction under a span named after op.
func (l *Ledger) mutate(ctx context.Context, op string, fn func(ctx context.Context, tx store.Tx) error, attrs ...attribute.KeyValue) error {
	ctx, span := l.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
	defer span.End()

	err := l.store.WithinTx(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.mutationsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
		logger.Log.Warn().Err(err).Str("op", op).Msg("Ledger mutation rejected")
	}
	return err
}

// read runs a read-only fn under a span named after op.
func (l *Ledger) read(ctx context.Context, op string, fn func(ctx context.Context, tx store.Tx) error, attrs ...attribute.KeyValue) error {
	ctx, span := l.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
	defer span.End()

	if err := fn(ctx, l.store); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (l *Ledger) emitted(ctx context.Context, notifications []Notification) {
	for _, n := range notifications {
		scope := "overall"
		if !n.Overall() {
			scope = "category"
		}
		l.notificationsEmitted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", n.Kind.String()),
			attribute.String("scope", scope),
		))
	}
}

func metricCurrency(code string) metric.AddOption {
	return metric.WithAttributes(attribute.String("currency", code))
}
