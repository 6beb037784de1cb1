// Package embed turns text into sentence embeddings.
//
// An Embedder is provided by one of the sub-packages (ollama, openai,
// local) and can be decorated with a rate limiter and a content-addressed
// cache (boltcache, rediscache). The provider sub-package assembles the
// chain from a Config.
package embed
