/*
Package observability provides metrics and logging for call flows.

Metrics exposes Prometheus collectors and turns them into domain.LifecycleHooks, so the
executor and renderer report transitions and renders without knowing about Prometheus.
LogHooks does the same with a slog.Logger, and Combine merges several hook sets.
*/
package observability
