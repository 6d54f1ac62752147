/*
Package session coordinates access to per-call session records.

Carrier webhooks for the same call may race (retries, duplicate delivery). The Manager serializes
every read-modify-write on one call identifier with a reference-counted in-process mutex and, when
configured, a distributed lock shared by all replicas. A transition is persisted only when the
whole update succeeds.
*/
package session
