// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect runs ffprobe through a procexec.Runner and returns the parsed
// Result; Parse decodes a payload that was captured elsewhere.
package ffprobe
