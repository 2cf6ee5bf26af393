// Package event carries user-facing notifications from the use cases to
// their consumers: the log and connected websocket clients.
package event
