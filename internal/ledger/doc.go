// Package ledger persists pipeline items in SQLite and is the single source
// of truth for what has and has not happened to each paper.
//
// The Store manages database connections, schema initialization, idempotent
// upserts keyed by (period, paper key), filtered listings, and the
// compare-and-swap Transition that is the only mutation path for stage
// changes. A transition applies its patch and stage change in one UPDATE
// conditioned on the expected current stage; a concurrent mutation surfaces
// as ErrStaleState and never partially applies.
//
// Treat this package as the authority on stage semantics; when you add new
// stages or item fields, update schema.sql and bump schemaVersion.
package ledger
