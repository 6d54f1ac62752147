/*
Package http serves a compiled call flow over HTTP.

Every RouteBinding becomes a POST endpoint on a chi router. Direct routes load the caller's
session and render the state with the request input. Transition routes run the state's
transition and render the next state inside a per-call lock, persisting the new session
only if both succeed and before the response is written.

The handler also exposes GET /healthz, GET /metrics and a POST /status callback that
destroys the session once the carrier reports the call has ended.
*/
package http
