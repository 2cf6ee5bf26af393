// Package pkgrouter wraps HTTP routing and common middleware used by the API.
//
// It provides a small router abstraction over httprouter plus shared concerns
// like JSON encoding, error mapping (including per-field validation details),
// logging, recovery, and correlation ID propagation. File uploads and websocket
// upgrades pass through the logging middleware without their bodies being read.
package pkgrouter
