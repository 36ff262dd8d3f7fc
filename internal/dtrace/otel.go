// Package dtrace wraps the OpenTelemetry tracing API
// so that other packages only reference dtrace.
package dtrace

import (
	"encoding/hex"

	otelattr "go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	otpnoop "go.opentelemetry.io/otel/trace/noop"
)

type TracerProvider = oteltrace.TracerProvider

type Tracer = oteltrace.Tracer

type Span = oteltrace.Span

type KeyValueAttr = otelattr.KeyValue

// NopTracerProvider returns the otel no-op tracer provider.
// This is intended to use as a fallback when a nil tracer provider is given.
func NopTracerProvider() TracerProvider {
	return otpnoop.NewTracerProvider()
}

// TracerOrNop returns t, or a no-op tracer if t is nil.
func TracerOrNop(t Tracer) Tracer {
	if t == nil {
		return NopTracerProvider().Tracer("")
	}
	return t
}

// WithAttributes is an alias to [oteltrace.WithAttributes]
// to allow consumers to only reference the dtrace package.
func WithAttributes(attrs ...KeyValueAttr) oteltrace.SpanStartEventOption {
	return oteltrace.WithAttributes(attrs...)
}

// DigestAttr returns an attribute holding the hex encoding of d,
// formatted through [otelattr.Stringer].
func DigestAttr(key string, d []byte) KeyValueAttr {
	return otelattr.Stringer(key, lazyHex{val: d})
}

type lazyHex struct {
	val []byte
}

func (h lazyHex) String() string {
	return hex.EncodeToString(h.val)
}

// SpanError sets the given span to error status,
// with detail from err.Error().
func SpanError(span Span, err error) {
	span.SetStatus(otelcodes.Error, err.Error())
}

// ErrorAttr returns an attribute with the key "err"
// and the value of err's Error() method.
func ErrorAttr(err error) KeyValueAttr {
	return otelattr.Stringer("err", errStringer{err: err})
}

type errStringer struct {
	err error
}

func (e errStringer) String() string {
	return e.err.Error()
}

func ShardIndexAttr(idx int) KeyValueAttr {
	return otelattr.Int("hashtree.shard.index", idx)
}

func ShardCountsAttrs(nData, nParity int) []KeyValueAttr {
	return []KeyValueAttr{
		otelattr.Int("hashtree.shard.data", nData),
		otelattr.Int("hashtree.shard.parity", nParity),
	}
}
