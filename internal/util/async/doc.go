// Package async runs long-lived tasks side by side.
//
// RunParallel is used by the run command to drive the scan loop and the ops
// server together: when one stops with an error the others are cancelled.
package async
