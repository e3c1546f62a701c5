// Package pipeline runs one recognition job end to end: register the job,
// extract audio, detect music segments, cut clips, identify each clip with
// the fingerprint service (falling back once to the generative describer),
// persist tracks and links, and clean up the run's transient files.
//
// A run is sequential. Extraction, detection, and store failures are fatal
// to the job and flip it to failed; a failed cut or recognition only counts
// the segment as unrecognized.
package pipeline
