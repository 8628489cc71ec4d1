// Package tracing integrates observability back-ends with the simulator so
// that every syscall a process makes can be followed as a span. All
// instrumentation is kept in a separate package so that applications which
// do not require tracing can exclude it from their build.
package tracing
