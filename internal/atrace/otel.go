// Package atrace wraps the OpenTelemetry tracing API
// so that callers only import one package for spans and attributes.
package atrace

import (
	"fmt"
	"net"

	otelattr "go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	otelnoop "go.opentelemetry.io/otel/trace/noop"
)

type TracerProvider = oteltrace.TracerProvider

type Tracer = oteltrace.Tracer

type Span = oteltrace.Span

type KeyValueAttr = otelattr.KeyValue

// TracerName is the instrumentation name for every tracer in this module.
const TracerName = "github.com/gordian-engine/allotree"

// NopTracerProvider returns the otel no-op tracer provider.
// This is intended to use as a fallback when a nil tracer provider is given.
func NopTracerProvider() TracerProvider {
	return otelnoop.NewTracerProvider()
}

// WithAttributes is an alias to [oteltrace.WithAttributes]
// to allow consumers to only reference the atrace package.
func WithAttributes(attrs ...KeyValueAttr) oteltrace.SpanStartEventOption {
	return oteltrace.WithAttributes(attrs...)
}

// StringAttr is an alias to [otelattr.String].
func StringAttr(key, val string) KeyValueAttr {
	return otelattr.String(key, val)
}

// IntAttr is an alias to [otelattr.Int].
func IntAttr(key string, val int) KeyValueAttr {
	return otelattr.Int(key, val)
}

// SpanError sets the given span to error status,
// with detail from err.Error().
func SpanError(span Span, err error) {
	span.SetStatus(otelcodes.Error, err.Error())
}

// ErrorAttr returns an attribute with the key "err"
// and the value of err's Error method.
func ErrorAttr(err error) KeyValueAttr {
	return otelattr.String("err", err.Error())
}

type RemoteAddr interface {
	RemoteAddr() net.Addr
}

func RemoteAddrAttr(ra RemoteAddr) KeyValueAttr {
	return otelattr.Stringer("remote", ra.RemoteAddr())
}

// RecordAttr returns the "allotree.record" attribute.
func RecordAttr(r fmt.Stringer) KeyValueAttr {
	return otelattr.Stringer("allotree.record", r)
}

// ProofStatusAttr returns the "allotree.proof.status" attribute.
func ProofStatusAttr(s fmt.Stringer) KeyValueAttr {
	return otelattr.Stringer("allotree.proof.status", s)
}
