// Package ir provides the literal value types carried by parsed filters.
//
// This package contains value definitions only. Every other internal package
// may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Numbers keep their JSON source text (IRNumber) so that coercion to a
//     property's exact numeric width happens once, at build time, without a
//     float64 round trip
//   - Strings are NFC normalized when decoded
//   - Objects are not literals; a JSON object in literal position is an error
package ir
