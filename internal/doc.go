// Package internal documents the campus events server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses and routing
// - domain: events, registrations and users, plus the shared error taxonomy
// - storage: the repository interfaces and their Postgres implementation
// - auth, audit, config, metrics, telemetry, sanitize, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
