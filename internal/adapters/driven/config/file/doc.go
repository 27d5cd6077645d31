// Package file provides the TOML-backed configuration store.
//
// Settings live in <dir>/config.toml where dir defaults to ~/.pdfqa.
// Nested tables are flattened into dot-notation keys on load.
package file
