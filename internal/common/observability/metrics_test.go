package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsIntoRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewWithOptions(Options{ServiceName: "nlu-test", Registerer: reg})
	defer o.Shutdown()

	ctx := context.Background()
	o.RecordUtterance(ctx, "rules", "save_note")
	o.RecordPipelineDuration(ctx, 3*time.Millisecond, "rules")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["nlu_utterances_processed_total"], "got %v", names)
	assert.True(t, names["nlu_pipeline_duration_milliseconds"], "got %v", names)
}

func TestObservability_NoopTracerWithoutEndpoint(t *testing.T) {
	o := NewWithOptions(Options{ServiceName: "nlu-test", Registerer: prometheus.NewRegistry()})
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "stage")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
}

func TestObservability_NilSafe(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordUtterance(ctx, "rules", "unknown")
		o.RecordPipelineDuration(ctx, time.Millisecond, "rules")
		_, span := o.StartSpan(ctx, "x")
		span.End()
		o.Shutdown()
	})
}
