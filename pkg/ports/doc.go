/*
Package ports defines the driven ports (interfaces) of the callflow engine.

These interfaces decouple the request orchestration from concrete backends, so the same compiled
flow can run against an in-memory store in tests and Redis or SQLite in production.

# Key Interfaces

  - SessionStore: persists, retrieves and destroys session records keyed by call identifier.
  - DistributedLocker: serializes work on one call across replicas.
*/
package ports
