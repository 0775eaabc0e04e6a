// Package rpc exposes Go functions and variables under string handles.
//
// Ownership boundary:
// - signature derivation and argument/result adaptation for bound functions
// - the handle registry and variable accessor synthesis
// - request dispatch and status-coded replies
//
// Bytes on the wire are produced by internal/pack and carried by
// internal/transport; rpc never touches a connection directly.
package rpc
