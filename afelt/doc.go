// Package afelt converts allocation fields to and from STARK field elements.
//
// Every hashable quantity in allotree is an [fp.Element],
// an integer modulo the STARK prime 2^251 + 17*2^192 + 1.
// Hex strings are parsed strictly: a value at or above the prime
// is rejected rather than silently reduced,
// so that a published record always maps to exactly one element.
//
// [fp.Element]: https://pkg.go.dev/github.com/consensys/gnark-crypto/ecc/stark-curve/fp#Element
package afelt
