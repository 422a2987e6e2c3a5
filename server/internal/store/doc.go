// Package store keeps the most recent diagnostic event of each kind so that a
// browser connecting after a build still sees that build's warnings and
// errors. Entries expire after a TTL.
package store
