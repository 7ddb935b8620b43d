// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding client, the vector index, the
// chunk store and snapshot persistence.
package driven
