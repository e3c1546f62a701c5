// Package preflight provides readiness checks for the external programs,
// services, and filesystem paths ghearing depends on.
//
// The "ghearing doctor" command runs RunAll and prints each Result. The
// API server runs the directory and binary checks at startup and logs
// failures without refusing to start.
//
// Service checks are gated by configuration: an unset fingerprint token or
// a disabled fallback is reported as skipped rather than failed.
package preflight
