// Package utils provides concurrency helpers for the playasearch library:
// bounded worker pools, semaphore-controlled execution, and panic
// recovery for goroutines doing external I/O.
package utils
