// Package cache implements the file-backed message store used for
// duplicate-avoidance: a bounded mapping of served messages to metadata plus
// a short recent-messages list that blocks immediate repetition.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const storeVersion = 1

// Entry is the metadata kept per cached message.
type Entry struct {
	FirstSeen time.Time `json:"first_seen"`
}

// Store is a bounded, persistent message cache. All mutating operations are
// serialized; the persisted file is rewritten atomically (write to temp, then
// rename) so a crash never truncates it.
type Store struct {
	mu          sync.Mutex
	path        string
	maxSize     int
	recentLimit int

	entries map[string]Entry
	order   []string // insertion order, oldest first
	recent  []string // last served, oldest first
}

type storeFile struct {
	Version  int              `json:"version"`
	Messages map[string]Entry `json:"messages"`
	Order    []string         `json:"order"`
	Recent   []string         `json:"recent"`
}

// New creates a store persisting to path. maxSize bounds the message map,
// recentLimit bounds the recent list.
func New(path string, maxSize, recentLimit int) (*Store, error) {
	if maxSize <= 0 {
		return nil, errors.New("max size must be positive")
	}
	if recentLimit <= 0 {
		return nil, errors.New("recent limit must be positive")
	}
	s := &Store{
		path:        path,
		maxSize:     maxSize,
		recentLimit: recentLimit,
		entries:     make(map[string]Entry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the persisted file. A missing file is a fresh cache, not an
// error; a corrupt file is reported so the operator can decide.
func (s *Store) load() error {
	if s.path == "" {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	var f storeFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("corrupt cache file %s: %w", s.path, err)
	}
	if f.Messages != nil {
		s.entries = f.Messages
	}
	// Rebuild order from the persisted list, dropping entries that no longer
	// exist in the map.
	for _, msg := range f.Order {
		if _, ok := s.entries[msg]; ok {
			s.order = append(s.order, msg)
		}
	}
	// Entries persisted without an order record go last.
	for msg := range s.entries {
		if !contains(s.order, msg) {
			s.order = append(s.order, msg)
		}
	}
	s.recent = f.Recent
	if len(s.recent) > s.recentLimit {
		s.recent = s.recent[len(s.recent)-s.recentLimit:]
	}
	s.evictLocked()
	return nil
}

// Add inserts a newly accepted message, evicting the oldest entries beyond
// the size bound, pushes it onto the recent list, and persists.
func (s *Store) Add(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[msg]; !ok {
		s.entries[msg] = Entry{FirstSeen: time.Now().UTC()}
		s.order = append(s.order, msg)
		s.evictLocked()
	}
	s.pushRecentLocked(msg)
	return s.persistLocked()
}

// MarkServed records a message as recently served without touching the
// message map. Used when serving from cache.
func (s *Store) MarkServed(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushRecentLocked(msg)
	return s.persistLocked()
}

func (s *Store) pushRecentLocked(msg string) {
	// Drop an existing occurrence so the list stays duplicate-free and msg
	// moves to the newest slot.
	for i, r := range s.recent {
		if r == msg {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			break
		}
	}
	s.recent = append(s.recent, msg)
	if len(s.recent) > s.recentLimit {
		s.recent = s.recent[len(s.recent)-s.recentLimit:]
	}
}

func (s *Store) evictLocked() {
	for len(s.order) > s.maxSize {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
}

// persistLocked rewrites the cache file atomically. Callers hold s.mu.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	f := storeFile{
		Version:  storeVersion,
		Messages: s.entries,
		Order:    s.order,
		Recent:   s.recent,
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Persist forces a rewrite of the cache file.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// Messages returns all cached messages in insertion order, oldest first.
func (s *Store) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Recent returns the recently served messages, oldest first.
func (s *Store) Recent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.recent))
	copy(out, s.recent)
	return out
}

// Len returns the number of cached messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Contains reports whether msg is cached.
func (s *Store) Contains(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[msg]
	return ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
