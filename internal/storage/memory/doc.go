// Package memory provides the in-memory database shared by all
// connections.
//
// It holds two independent structures:
//
//   - Keyspace: key -> {value, optional deadline}, stored in a sharded map.
//     Expired entries are treated as absent on every read and removed
//     lazily; an optional sweeper also purges them in the background.
//   - Pub/Sub registry: channel -> set of subscribers. Publish delivers to
//     a snapshot of the set taken under the channel's lock, so each
//     subscriber sees one channel's messages in publish order.
//
// Thread Safety:
//
// Every exported method is safe for concurrent use. Each operation is
// atomic with respect to the entry or channel it touches; there are no
// multi-key transactions.
package memory
