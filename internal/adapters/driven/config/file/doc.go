// Package file provides the TOML configuration store and the typed
// settings loaded from it.
package file
