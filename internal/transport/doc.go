// Package transport owns connection-oriented message delivery.
//
// Ownership boundary:
// - TCP listener lifecycle and per-connection workers
// - one frame in, at most one frame out per message (reply echoes message id)
// - client-side request/response connections
//
// Transport never inspects payload bytes; routing belongs to the handler.
package transport
