// Package veccache implements the vector cache file: a SQLite database that
// stores the embedding model name together with every dataset pattern, its
// intent tag and its embedding, aligned by position. Every change to the
// entries is recorded in a change log (see package vecsync).
package veccache
