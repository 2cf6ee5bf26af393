// Package pkgmetric exposes application metrics through prometheus/client_golang.
//
// Metrics live on a private registry so tests can create as many instances as
// they like without colliding on the global default registry.
package pkgmetric
