// Package recognition identifies music clips through an AudD-compatible
// fingerprint service.
//
// Recognize returns an Outcome that is either Matched (with a Match carrying
// the canonical external identifier) or Unmatched. A "no match" reply is not an
// error; transport failures, error replies, and undecodable payloads are
// reported as ErrRecognitionCall. RecognizeAll processes clips sequentially
// with a fixed delay and never aborts early.
package recognition
