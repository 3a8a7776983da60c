// Package internal documents the event listing server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem rendering, and routing
// - domain: business logic (accounts with lockout, event listings)
// - store: the versioned single-document JSON store
// - blob: uploaded image storage
// - auth, config, email, metrics: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
