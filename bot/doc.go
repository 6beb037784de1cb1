// Package bot matches user input to intents and learns new ones.
//
// A Bot owns the dataset, the vector cache and an in-memory kNN index. Every
// mutation goes to the cache first, then to the dataset file, and only then
// to the in-memory mirror, so the three stay aligned row for row.
package bot
