// Package config loads, normalizes, and validates ghearing configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUDD_API_TOKEN and OPENROUTER_API_KEY. The Config type centralizes every knob
// the pipeline, the CLI, and the HTTP API need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
