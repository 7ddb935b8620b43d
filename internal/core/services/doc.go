// Package services contains the core business logic: the retrieval
// service that keeps the chunk store and vector index in lockstep, and
// the confidence gate that decides whether retrieval results are good
// enough for downstream synthesis.
package services
