// Package preview parses the current upload locally into a ParsedTable so the
// rows can be shown and charted before, and independently of, the remote
// analysis.
package preview
