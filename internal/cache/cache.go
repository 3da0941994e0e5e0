// Package cache provides a bbolt-backed cache for generation responses.
//
// Entries live in a single database file under a "responses" bucket, keyed
// by a SHA-256 hash of provider, model, and both prompt halves. Every
// payload stored here has already been through secret redaction. Expired
// entries are skipped on read and dropped lazily.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a key has no live entry.
var ErrNotFound = errors.New("cache entry not found")

var bucketResponses = []byte("responses")

// Entry is one cached generation response.
type Entry struct {
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

// Store is a response cache. A disabled Store is valid and treats every
// lookup as a miss.
type Store struct {
	db         *bolt.DB
	path       string
	ttlSeconds int
	enabled    bool
}

// Open opens (or creates) the cache database. An empty path uses the
// platform cache directory.
func Open(enabled bool, path string, ttlSeconds int) (*Store, error) {
	if !enabled {
		return &Store{enabled: false}, nil
	}
	if path == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "gavel.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResponses)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache bucket: %w", err)
	}

	return &Store{
		db:         db,
		path:       path,
		ttlSeconds: ttlSeconds,
		enabled:    true,
	}, nil
}

// Close closes the database. Safe on a disabled store.
func (s *Store) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get retrieves a cached response by key. Returns ("", false) on miss or
// expiry.
func (s *Store) Get(key string) (string, bool) {
	if !s.enabled {
		return "", false
	}

	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketResponses).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return "", false
	}

	if s.expired(entry) {
		// Drop lazily; a failed delete just leaves the entry for Clear.
		_ = s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketResponses).Delete([]byte(key))
		})
		return "", false
	}
	return entry.Response, true
}

// Put stores a response under key.
func (s *Store) Put(key, response string) error {
	if !s.enabled {
		return nil
	}
	entry := Entry{
		Response:  response,
		CreatedAt: time.Now(),
		TTL:       s.ttlSeconds,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResponses).Put([]byte(key), data)
	})
}

// Clear removes all cached responses.
func (s *Store) Clear() error {
	if !s.enabled {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketResponses); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketResponses)
		return err
	})
}

// Stats describes the cache contents.
type Stats struct {
	Path       string `json:"path"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{Path: s.path}
	if !s.enabled {
		return stats, nil
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResponses).ForEach(func(_, v []byte) error {
			stats.Entries++
			stats.TotalBytes += int64(len(v))
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			if s.expired(entry) {
				stats.Expired++
			}
			return nil
		})
	})
	return stats, err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Enabled returns whether caching is active.
func (s *Store) Enabled() bool { return s.enabled }

func (s *Store) expired(entry Entry) bool {
	return s.ttlSeconds > 0 && time.Since(entry.CreatedAt) > time.Duration(s.ttlSeconds)*time.Second
}

// Key builds the cache key for one generation call.
func Key(provider, model, system, user string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%s", provider, model, system, user)))
	return fmt.Sprintf("%x", h)
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gavel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "gavel"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "gavel", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "gavel", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "gavel"), nil
	}
}
