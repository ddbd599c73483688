// Package session owns invoker<->host bridge wire helpers.
//
// Ownership boundary:
// - invoke/result/failure frame encoding
// - per-call timeouts and connect backoff
package session
