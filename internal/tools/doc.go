// Package tools holds the tool registry and the built-in note tools.
//
// A Tool pairs a name and JSON input schema with a handler. The Registry
// rejects duplicate names at registration, lists tools in registration
// order, and validates call input against the schema before the handler
// ever runs. Schema violations surface as ErrInvalidInput; handler
// errors are business failures and come back as isError results.
package tools
