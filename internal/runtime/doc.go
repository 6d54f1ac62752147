// Package runtime runs the two per-request operations of a call flow: executing a
// NormalState's transition and rendering a RoutableState into a document.
package runtime
