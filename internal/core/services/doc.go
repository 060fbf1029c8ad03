// Package services contains the core application services: the
// ingestion pipeline, ranked retrieval and grounded answer composition.
// Services depend only on the driven ports; adapters are injected at
// startup.
package services
