// Package fsd decodes FSD payloads into ordered value trees.
//
// Ownership boundary:
// - schema-driven payload decoding (DecodeAt / Decode)
// - decoded value types (List, Map, Record, Key)
// - JSON / YAML / plain encodings of decoded trees
package fsd
