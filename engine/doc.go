// Package engine opens the SQLite files used by intentbot through the
// pure-Go modernc.org/sqlite driver and registers the vec_cosine and vec_l2
// scalar functions that let the vector cache score embeddings in SQL.
package engine
