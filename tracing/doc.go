// Package tracing wraps OpenTelemetry so that workflow runs and transitions
// can be exported as spans. Components receive a *Tracer explicitly; a nil
// or no-op tracer records nothing.
package tracing
