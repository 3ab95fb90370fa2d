package tracing

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	options "github.com/kart-io/sentinel-docqa/pkg/options/tracing"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), options.NewOptions())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderNoopExporter(t *testing.T) {
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ServiceName = "docqa-test"
	opts.ExporterType = options.ExporterNoop

	p, err := NewProvider(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, span := p.Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *options.Options)
		wantErr bool
	}{
		{"disabled is valid", func(o *options.Options) { o.ExporterType = "bogus" }, false},
		{"enabled defaults", func(o *options.Options) { o.Enabled = true }, false},
		{"missing endpoint", func(o *options.Options) { o.Enabled = true; o.Endpoint = "" }, true},
		{"stdout without endpoint", func(o *options.Options) {
			o.Enabled = true
			o.Endpoint = ""
			o.ExporterType = options.ExporterStdout
		}, false},
		{"bad exporter", func(o *options.Options) { o.Enabled = true; o.ExporterType = "zipkin" }, true},
		{"bad ratio", func(o *options.Options) { o.Enabled = true; o.SamplerRatio = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := options.NewOptions()
			tt.mutate(o)
			errs := o.Validate()
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "test", "failing")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	EndSpan(span, stderrors.New("boom"))

	_, ok := StartSpan(context.Background(), "test", "ok")
	EndSpan(ok, nil)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
