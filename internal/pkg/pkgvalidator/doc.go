// Package pkgvalidator wraps go-playground/validator for request models.
//
// Validation failures come back as pkgerror validation errors that also carry
// per-field messages keyed by the json field name, which the router renders
// under "error".
package pkgvalidator
