// Package application provides application initialization and dependency wiring.
// It creates the object registry, endpoint catalog, storage, handlers, router and
// HTTP server, seeds the endpoints declared in the config file and optionally
// re-seeds them when that file changes.
package application
