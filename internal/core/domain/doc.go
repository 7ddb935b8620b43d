// Package domain contains the core business entities for the retrieval
// subsystem: chunks, retrieval results, gate decisions, settings and the
// error taxonomy. It has no dependencies on adapters or infrastructure.
package domain
