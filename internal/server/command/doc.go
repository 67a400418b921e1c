// Package command parses request frames into typed commands and executes
// them against the shared store.
//
// Supported commands:
//   - PING [message]
//   - GET key
//   - SET key value [EX seconds | PX milliseconds]
//   - DEL key [key ...]
//   - TTL key
//   - PUBLISH channel message
//   - SUBSCRIBE channel [channel ...]
//   - UNSUBSCRIBE [channel ...]
//
// A successful SUBSCRIBE switches the connection into subscribed mode.
// Published messages are then pushed to the client as they arrive, and
// only SUBSCRIBE, UNSUBSCRIBE and PING are accepted until the last
// channel is left.
package command
