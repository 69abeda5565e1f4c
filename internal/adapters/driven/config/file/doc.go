// Package file provides the TOML-backed configuration store.
//
// Nested tables are exposed as dot-notation keys, so
//
//	[webhook]
//	addr = "127.0.0.1:8787"
//
// is read with GetString("webhook.addr").
package file
