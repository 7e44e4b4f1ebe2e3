// Package cache keeps extractor results on disk under content-addressed keys, for a limited time.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/where"
)

// Store is a directory of JSON entries that expire ttl after they were written.
type Store struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
}

// New returns a store rooted at dir.
func New(fs afero.Fs, dir string, ttl time.Duration) *Store {
	return &Store{fs: fs, dir: dir, ttl: ttl}
}

// Default is the extraction cache configured by extractor.cache_ttl.
func Default() *Store {
	ttl := time.Duration(viper.GetInt(key.ExtractorCacheTTL)) * time.Hour
	return New(filesystem.API().Fs, where.Extractions(), ttl)
}

// GenerateKey derives a deterministic SHA-256 identifier from parts.
func GenerateKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) expired(info os.FileInfo) bool {
	return s.ttl <= 0 || time.Since(info.ModTime()) > s.ttl
}

// Read decodes the entry for key into target. Missing, expired or corrupt entries are misses.
func (s *Store) Read(key string, target any) bool {
	path := s.path(key)

	info, err := s.fs.Stat(path)
	if err != nil || s.expired(info) {
		return false
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(target) == nil
}

// Write stores data under key, swapping a temporary file into place.
func (s *Store) Write(key string, data any) error {
	if err := s.fs.MkdirAll(s.dir, os.ModePerm); err != nil {
		return err
	}

	path := s.path(key)
	tmp := path + ".tmp"

	f, err := s.fs.Create(tmp)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return s.fs.Rename(tmp, path)
}

// CollectGarbage removes expired entries and returns how many were removed.
func (s *Store) CollectGarbage() (int, error) {
	var removed int

	err := afero.Walk(s.fs, s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() || !s.expired(info) {
			return nil
		}

		if err := s.fs.Remove(path); err == nil {
			removed++
		}

		return nil
	})

	return removed, err
}

// Clear drops every entry.
func (s *Store) Clear() error {
	return s.fs.RemoveAll(s.dir)
}
