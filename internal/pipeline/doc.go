// Package pipeline turns chat screenshots into ordered message lists.
//
// A run prepares the image (downscaling oversized uploads), scans for
// message regions, merges them into bubbles, locates timestamps, recognizes
// and normalizes each bubble's text, attaches times and assembles the final
// list. Recognition calls run on a bounded worker pool with a per-call
// timeout; a failing bubble or slice is logged and skipped. Each run is
// tagged with a run_id log field.
//
// Callers needing only messages use Process, ProcessReader or ProcessFile.
// Analyze exposes every intermediate stage and Transcribe combines several
// screenshots of one conversation.
package pipeline
