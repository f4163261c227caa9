package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/killallgit/delivery-api/internal/models"
)

// TranscriptStore persists raw ASR payloads in a Cache
type TranscriptStore struct {
	cache Cache
}

// NewTranscriptStore wraps a cache backend
func NewTranscriptStore(c Cache) *TranscriptStore {
	return &TranscriptStore{cache: c}
}

// Get returns the cached payload for key. A corrupt entry is an error rather
// than a miss so it is not silently overwritten.
func (s *TranscriptStore) Get(ctx context.Context, key string) (models.RawPayload, bool, error) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	var raw models.RawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return raw, true, nil
}

// Put stores raw under key
func (s *TranscriptStore) Put(ctx context.Context, key string, raw models.RawPayload) error {
	data, err := MarshalPayload(raw)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	return s.cache.Set(ctx, key, data)
}

// MarshalPayload renders a payload as indented UTF-8 JSON with non-ASCII and
// HTML characters kept literal
func MarshalPayload(raw models.RawPayload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
