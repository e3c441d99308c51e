// Package contextx defines the typed context keys shared across the module
// and helpers to read and write them.
package contextx

// ctxKey is a private type so context keys cannot collide with other packages.
type ctxKey int

const (
	requestIDKey ctxKey = iota
	cartTokenKey
	endpointKey
)
