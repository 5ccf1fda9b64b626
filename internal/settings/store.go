package settings

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/routecast/navrig/internal/monitoring"
)

// Persistence stores the marshaled settings document.
type Persistence interface {
	LoadSettings() ([]byte, error)
	SaveSettings(document []byte) error
}

// Store serializes access to the settings document and writes every
// change through to storage. A missing or unreadable stored document is
// replaced with the seed, so a fresh database comes up configured.
type Store struct {
	mu      sync.Mutex
	storage Persistence
	doc     Document
}

// NewStore loads the stored document, or writes seed to storage when
// nothing usable is stored. Callers without a configured baseline pass
// Defaults().
func NewStore(storage Persistence, seed Document) (*Store, error) {
	seed, err := seed.Normalize()
	if err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	raw, err := storage.LoadSettings()
	if err != nil {
		return nil, err
	}

	doc := seed
	write := raw == nil

	if raw != nil {
		parsed, err := ParseDocument(raw)
		if err != nil {
			monitoring.Logf("Stored settings invalid, resetting to defaults: %v", err)
			write = true
		} else {
			doc = parsed
		}
	}

	s := &Store{storage: storage, doc: doc}
	if write {
		if err := s.save(doc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Current returns the active settings document.
func (s *Store) Current() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Update validates, persists, and activates a new document, returning
// the stored form. The active document is untouched on any failure.
func (s *Store) Update(doc Document) (Document, error) {
	normalized, err := doc.Normalize()
	if err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(normalized); err != nil {
		return Document{}, err
	}
	s.doc = normalized
	return normalized, nil
}

func (s *Store) save(doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.storage.SaveSettings(data)
}
