// Package analyzer is the client of the remote analysis service. It uploads
// the current file as multipart form data, reports upload progress, and
// classifies failures into the three user-facing message shapes.
package analyzer
