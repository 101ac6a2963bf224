// Package api exposes the HTTP surface of the minting backend: the landing
// page, the liveness probe, the chain configuration consumed by the minting
// page, per-token metadata for marketplace indexers, static assets and the
// Prometheus metrics endpoint.
package api
