/*
Package domain contains the core types shared by the callflow compiler, runtime and adapters.

It defines the capabilities a call-flow state can expose, the per-call session data that is
carried between webhook requests, and the error taxonomy used across the engine. This package is
kept free of I/O and of any HTTP framework types.

# Key Entities

  - UsableState, RoutableState, NormalState: structural capabilities of a declared state.
  - SessionData / SessionRecord: per-call progress and its persisted form.
  - RouteBinding: a compiled POST endpoint pointing at a state.
  - Input: the raw carrier payload of one webhook request.
  - Document: the rendered markup response.
*/
package domain
