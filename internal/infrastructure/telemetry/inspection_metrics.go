package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const inspectionMeterName = "agrocert-backend/inspection"

// InspectionMetrics holds the workflow instruments for fichas.
type InspectionMetrics struct {
	created          *Counter
	transitions      *Counter
	approvalReverted *Counter
	surfaceErrors    *Counter
	syncDuration     *Histogram
}

// NewInspectionMetrics creates the instruments on meter.
func NewInspectionMetrics(meter metric.Meter) (*InspectionMetrics, error) {
	var (
		m   InspectionMetrics
		err error
	)
	if m.created, err = NewCounter(meter, "ficha_created_total", "Fichas created", "{ficha}"); err != nil {
		return nil, err
	}
	if m.transitions, err = NewCounter(meter, "ficha_transitions_total", "Ficha state transitions", "{transition}"); err != nil {
		return nil, err
	}
	if m.approvalReverted, err = NewCounter(meter, "ficha_approval_reverted_total",
		"Approvals compensated after a failed synchronization", "{ficha}"); err != nil {
		return nil, err
	}
	if m.surfaceErrors, err = NewCounter(meter, "ficha_surface_errors_total",
		"Surface validation errors raised at review submission", "{error}"); err != nil {
		return nil, err
	}
	if m.syncDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "ficha_sync_duration_seconds",
		Description: "Duration of the post-approval synchronization",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordFichaCreated counts a new ficha by capture origin.
func (m *InspectionMetrics) RecordFichaCreated(ctx context.Context, origin string) {
	if m == nil {
		return
	}
	m.created.Inc(ctx, AttrCaptureOrigin.String(origin))
}

// RecordTransition counts a successful state change into status.
func (m *InspectionMetrics) RecordTransition(ctx context.Context, transition, status string) {
	if m == nil {
		return
	}
	m.transitions.Inc(ctx, AttrTransition.String(transition), AttrStatus.String(status))
}

// RecordApprovalReverted counts a compensated approval.
func (m *InspectionMetrics) RecordApprovalReverted(ctx context.Context) {
	if m == nil {
		return
	}
	m.approvalReverted.Inc(ctx)
}

// RecordSurfaceErrors adds n blocking surface errors.
func (m *InspectionMetrics) RecordSurfaceErrors(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.surfaceErrors.Add(ctx, int64(n))
}

// RecordSync records how long a synchronization took and whether it succeeded.
func (m *InspectionMetrics) RecordSync(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.syncDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}
