// Package gateway assembles the inkwell server from its parts.
//
// It is deliberately thin: the protocol lives in internal/mcp, the
// tools in internal/tools, and persistence in internal/store. The
// gateway loads config, wires those together, mounts /mcp and /health
// on one HTTP server, and handles graceful shutdown.
package gateway
