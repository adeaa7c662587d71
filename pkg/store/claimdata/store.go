/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package claimdata remembers the claim data supplied when a credential offer is created until the
// offer's response token is processed.
package claimdata

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bluele/gcache"
)

const (
	// DefaultTTL is how long an unanswered offer keeps its claim data.
	DefaultTTL = 24 * time.Hour
	// DefaultCapacity bounds the number of offers tracked at once.
	DefaultCapacity = 10000
)

// ErrNotFound is returned when no claim data is held for an interaction.
var ErrNotFound = errors.New("no claim data for interaction")

// ClaimData holds the claims to embed in a credential of the given type.
type ClaimData struct {
	Type   string                 `json:"type"`
	Claims map[string]interface{} `json:"claims"`
}

// Store is a concurrency safe, expiring map from interaction id to claim data.
type Store struct {
	// gcache is safe for concurrent use; mu only keeps Put from landing between the read and
	// the eviction of a Take, so a taken entry is handed out once.
	mu    sync.Mutex
	cache gcache.Cache
	ttl   time.Duration
}

type options struct {
	ttl      time.Duration
	capacity int
	clock    gcache.Clock
}

// Option configures the store.
type Option func(*options)

// WithTTL sets the time after which unread entries expire. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithCapacity bounds the store; the least recently used entry is evicted when full.
// Zero means unbounded.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithClock replaces the clock used for expiry.
func WithClock(c gcache.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// New returns a claim data store.
func New(opts ...Option) *Store {
	o := &options{ttl: DefaultTTL, capacity: DefaultCapacity}

	for _, opt := range opts {
		opt(o)
	}

	b := gcache.New(o.capacity)
	if o.capacity > 0 {
		b = b.LRU()
	}

	if o.clock != nil {
		b = b.Clock(o.clock)
	}

	return &Store{cache: b.Build(), ttl: o.ttl}
}

// Put registers the claim data of an interaction, replacing any previous entry.
func (s *Store) Put(interactionID string, data []ClaimData) error {
	if interactionID == "" {
		return errors.New("empty interaction id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl > 0 {
		return s.cache.SetWithExpire(interactionID, data, s.ttl)
	}

	return s.cache.Set(interactionID, data)
}

// Get returns the claim data of an interaction without removing it.
func (s *Store) Get(interactionID string) ([]ClaimData, error) {
	return s.get(interactionID)
}

// Take returns the claim data of an interaction and removes it.
func (s *Store) Take(interactionID string) ([]ClaimData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.get(interactionID)
	if err != nil {
		return nil, err
	}

	s.cache.Remove(interactionID)

	return data, nil
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	return s.cache.Len(true)
}

func (s *Store) get(interactionID string) ([]ClaimData, error) {
	v, err := s.cache.Get(interactionID)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, interactionID)
		}

		return nil, fmt.Errorf("claim data lookup: %w", err)
	}

	data, ok := v.([]ClaimData)
	if !ok {
		return nil, fmt.Errorf("unexpected claim data entry %T", v)
	}

	return data, nil
}
