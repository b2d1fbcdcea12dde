package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-portfolio-backend/internal/config"
)

// keepGlobals restores the global tracer provider and propagator after t.
func keepGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func enabledConfig(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetup_DisabledLeavesGlobals(t *testing.T) {
	keepGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.OTELConfig{Endpoint: "ignored:4317"}, "v0")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		keepGlobals(t)

		shutdown, err := Setup(context.Background(), enabledConfig("portfolio-api", insecure), "1.4.0")
		require.NoError(t, err, "insecure=%v", insecure)

		_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
		assert.True(t, ok, "expected the SDK provider, insecure=%v", insecure)

		ctx, span := Start(context.Background(), "categories.list")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		assert.NotEmpty(t, carrier.Get("traceparent"))

		// nothing listens on the endpoint; only the call itself matters
		sctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(sctx)
		cancel()
	}
}

func TestSetup_CanceledContextStillSucceeds(t *testing.T) {
	keepGlobals(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := Setup(ctx, enabledConfig("portfolio-api", true), "v0")
	require.NoError(t, err)
	_ = shutdown(context.Background())
}

func TestServiceResource_Attributes(t *testing.T) {
	res, err := newServiceResourceFn(context.Background(), "portfolio-api", "2.0.1")
	require.NoError(t, err)

	got := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		got[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "portfolio-api", got[semconv.ServiceNameKey])
	assert.Equal(t, "2.0.1", got[semconv.ServiceVersionKey])
	assert.Equal(t, "portfolio", got[semconv.ServiceNamespaceKey])
}

func TestSetup_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("exporter", func(t *testing.T) {
		keepGlobals(t)
		orig := newOTLPExporterFn
		t.Cleanup(func() { newOTLPExporterFn = orig })
		newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
			return nil, boom
		}

		before := otel.GetTracerProvider()
		_, err := Setup(context.Background(), enabledConfig("svc", true), "v0")
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "otel exporter")
		assert.Equal(t, before, otel.GetTracerProvider())
	})

	t.Run("resource", func(t *testing.T) {
		keepGlobals(t)
		orig := newServiceResourceFn
		t.Cleanup(func() { newServiceResourceFn = orig })
		newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
			return nil, boom
		}

		before := otel.GetTracerProvider()
		_, err := Setup(context.Background(), enabledConfig("svc", true), "v0")
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "otel resource")
		assert.Equal(t, before, otel.GetTracerProvider())
	})
}

func TestStart_RecordsSpanWithAttributes(t *testing.T) {
	keepGlobals(t)
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	ctx, span := Start(context.Background(), "projects.save_image", attribute.String("image.content_type", "image/png"))
	require.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "projects.save_image", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
	assert.Equal(t, InstrumentationName, ended[0].InstrumentationScope().Name)
	assert.Equal(t, []attribute.KeyValue{attribute.String("image.content_type", "image/png")}, ended[0].Attributes())
}
