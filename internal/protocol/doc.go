// Package protocol owns the request/reply wire contract.
//
// Ownership boundary:
// - request envelope: [request_type u8][type-specific payload]
// - reply envelope: [status u8][status-specific payload]
// - request/status code tables
//
// Framing lives in protocol/frame; value encoding lives in pack.
package protocol
