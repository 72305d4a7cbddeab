package observability

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer provides X-Ray subsegments around store and aggregation work.
// When disabled, or when the context carries no parent segment, the wrapped
// function runs untraced.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		enabled:     enabled,
	}
}

// Enabled reports whether spans are recorded.
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

// StartSegment starts a new root segment named after the service.
func (t *Tracer) StartSegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	if !t.Enabled() {
		return ctx, nil
	}
	return xray.BeginSegment(ctx, t.serviceName+"."+name)
}

// TraceFunction wraps fn in a subsegment.
func (t *Tracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	if !t.Enabled() || xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSubsegment(ctx, name)
	if seg == nil {
		return fn(ctx)
	}

	err := fn(ctx)
	seg.Close(err)
	return err
}

// AddAnnotation adds an indexed annotation to the current segment
func (t *Tracer) AddAnnotation(ctx context.Context, key string, value string) {
	if !t.Enabled() {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// RecordError records an error in the current segment
func (t *Tracer) RecordError(ctx context.Context, err error) {
	if !t.Enabled() || err == nil {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddError(err)
	}
}
