// Package mcp implements the Model Context Protocol server over the
// Streamable HTTP transport.
//
// A single /mcp endpoint carries the whole protocol: POST delivers
// JSON-RPC requests and notifications, GET opens the server-to-client
// event stream, and DELETE ends a session. Sessions are created by the
// initialize handshake, identified by the Mcp-Session-Id header, and
// live in an in-memory store with an idle-TTL sweeper.
//
// Error handling is split three ways: envelope violations become
// JSON-RPC errors, session problems become plain HTTP 400 responses,
// and tool business failures travel as isError results inside a
// successful envelope.
package mcp
