// Package session holds the state of the single Datasmith session and the
// closed set of transitions that move it.
package session
