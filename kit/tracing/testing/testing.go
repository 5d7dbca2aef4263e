package testing

import (
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
)

// SetupMockTracing sets the global tracer to a mock tracer recording finished
// spans. The previous tracer is restored when the test ends.
func SetupMockTracing(t testing.TB) *mocktracer.MockTracer {
	old := opentracing.GlobalTracer()
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	t.Cleanup(func() {
		opentracing.SetGlobalTracer(old)
	})
	return tracer
}
