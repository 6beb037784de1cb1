// Package index defines the in-memory nearest-neighbour abstraction used to
// match a query embedding against the cached pattern embeddings. Rows are
// addressed by their position in the vector cache, so a hit maps straight
// back to the pattern and tag at the same position.
//
// Implementations: index/bruteforce (exact scan) and index/cover (cover tree).
package index
