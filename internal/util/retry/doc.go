// Package retry provides the two waiting strategies used across cellflow.
//
// [WithExponentialBackoff] retries a failing operation with growing delays.
// It is used for startup connectivity probes against device controllers.
//
// [Poll] evaluates a condition on a fixed interval within an attempt and
// time budget. It is the synchronization primitive behind every wait on an
// external system: backend document status, printer job progress and
// sorting controller status.
package retry
