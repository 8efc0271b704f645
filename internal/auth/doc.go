// Package auth handles bearer token verification for MCP clients.
//
// Tokens are HS256 JWTs signed with a shared secret from the server
// config. The sub claim names the client the token was issued to and
// the iss claim must equal Issuer. JWTVerifier also generates tokens,
// which the bootstrap-token subcommand uses to mint credentials.
package auth
