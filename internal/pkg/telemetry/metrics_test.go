package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFetchLabels(t *testing.T) {
	Init()

	before := testutil.ToFloat64(FetchesTotal.WithLabelValues("test-site", "500"))
	ObserveFetch("test-site", 500, 20*time.Millisecond)
	after := testutil.ToFloat64(FetchesTotal.WithLabelValues("test-site", "500"))
	if after-before != 1 {
		t.Errorf("expected one 500 fetch recorded, got delta %v", after-before)
	}

	beforeErr := testutil.ToFloat64(FetchesTotal.WithLabelValues("test-site", "error"))
	ObserveFetch("test-site", 0, time.Millisecond)
	afterErr := testutil.ToFloat64(FetchesTotal.WithLabelValues("test-site", "error"))
	if afterErr-beforeErr != 1 {
		t.Errorf("transport errors should be labelled \"error\", delta %v", afterErr-beforeErr)
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	first := ResolutionsTotal
	Init()
	if ResolutionsTotal != first {
		t.Error("Init should not re-register metrics")
	}
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if GetCorrelation(ctx) != "" {
		t.Fatal("empty context should have no correlation id")
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation = %q", got)
	}
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(WithCorrelation(context.Background(), "x"), "test")
	defer span.End()
	if ctx == nil {
		t.Fatal("StartSpan must return a context")
	}
	RecordError(span, nil)
}
