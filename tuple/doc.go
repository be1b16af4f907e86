// Package tuple a collection of generic struct types
// that hold a specific number of values.
package tuple

//go:generate go run generate.go
