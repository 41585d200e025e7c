// Package config loads, normalizes, and validates the TOML configuration
// that drives the paper digest pipeline.
//
// Load resolves the config path (explicit flag, then ~/.config/apd/config.toml,
// then ./apd.toml), parses it over Default(), expands tilde paths, and
// validates the result. EnsureDirectories creates the artifact, result,
// digest, and log directories before the ledger or stages run.
package config
