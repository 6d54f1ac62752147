/*
Package callflow drives telephone calls through a finite set of interaction states in
response to carrier webhooks.

Each carrier request is a separate, stateless HTTP call, so the flow's progress for a call
is persisted between requests in a SessionStore keyed by the call identifier (CallSid).

# States

A state is any Go value with a Name. What it can do is decided by the interfaces it
implements:

  - domain.RoutableState can be reached directly at URI() and renders a document.
  - domain.NormalState consumes carrier input at ProcessTransitionURI() and returns the
    updated session and the next state, which must be routable.

A state may implement both. Values implementing neither are rejected when the flow is built.

# Usage

	states := []any{&Welcome{}, &Menu{}, &Goodbye{}}

	app, err := callflow.New(states, redis.New("localhost:6379", "", 0),
		callflow.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(http.ListenAndServe(":8080", app.Handler()))

Every state becomes one or two POST endpoints. A request to a transition endpoint loads the
session, runs TransitionOut, renders the next state and saves the new session before the
response is written. Nothing is saved when any of those steps fails.
*/
package callflow
