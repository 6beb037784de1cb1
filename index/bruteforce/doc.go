// Package bruteforce provides an exact vector index that answers kNN queries
// by scanning every row and scoring it by cosine similarity. Magnitudes are
// computed once per row so a query costs one dot product per row.
package bruteforce
