// Package boltcache stores embeddings in a bbolt file.
package boltcache

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/intentbot/vector"
	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// Cache is a bbolt-backed embedding cache.
type Cache struct {
	db *bbolt.DB
}

// Open opens or creates the cache file at path.
func Open(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltcache: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltcache: create bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the embedding stored under key.
func (c *Cache) Get(_ context.Context, key string) ([]float32, bool, error) {
	var vec []float32
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get([]byte(key))
		if data == nil {
			return nil
		}
		var err error
		vec, err = vector.DecodeEmbedding(data)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("boltcache: get %s: %w", key, err)
	}
	return vec, vec != nil, nil
}

// Put stores vec under key.
func (c *Cache) Put(_ context.Context, key string, vec []float32) error {
	data, err := vector.EncodeEmbedding(vec)
	if err != nil {
		return fmt.Errorf("boltcache: put %s: %w", key, err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put([]byte(key), data)
	})
}

// Len reports the number of stored embeddings.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the file.
func (c *Cache) Close() error { return c.db.Close() }
