// Command ghearing is the command-line entry point for the broadcast music
// recognition pipeline.
//
// It processes media files directly against the local SQLite store, lists
// and exports jobs, reports usage metrics, checks the environment, and runs
// the HTTP API server. Listing commands print tables on a terminal and JSON
// otherwise; --output overrides the choice.
package main
