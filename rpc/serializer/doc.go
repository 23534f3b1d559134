// Package serializer converts common.Message values to bytes and back.
//
//   - Binary: a flag byte marks which fields are present, each field is length
//     prefixed. nil and empty values stay apart, trailing bytes are rejected. This is
//     the default and the most compact format.
//   - JSON: readable, message types are written by name. Useful for debugging.
//   - GOB: Go's gob encoding.
//
// JSON and GOB do not distinguish nil from empty slices.
// All serializers are stateless and safe for concurrent use.
package serializer
