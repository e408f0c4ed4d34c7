// Package persistence stores admitted subscription requests so they can be
// restored when their provider is registered again.
//
// FileStore keeps all requests in a single versioned JSON file. BadgerStore
// keeps one CBOR record per subscription in a BadgerDB database. Both
// implement publication.Store.
package persistence
