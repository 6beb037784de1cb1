// Package vector holds the numeric primitives shared by the vector cache and
// the in-memory indexes:
//   - Embedding encoding (little-endian float32 BLOB) and decoding
//   - Cosine similarity, L2 distance and magnitude
package vector
