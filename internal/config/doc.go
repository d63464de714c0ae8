// Package config holds all configuration for the link extractor.
//
// Configuration is assembled once at startup from CLI flags and an optional
// YAML defaults file, validated, and then shared read-only with every
// component. Nothing mutates it after Validate succeeds, so it is safe to
// read from all workers without synchronization.
package config
