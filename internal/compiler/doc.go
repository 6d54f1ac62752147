// Package compiler validates declared call-flow states and compiles them into POST route
// bindings. It runs once at startup; the resulting RouteTable is never mutated.
package compiler
