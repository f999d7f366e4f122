package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StoreOptions configures how registry documents are serialized. Options are
// passed in explicitly so several registries can be handled in one process
// without shared parser state.
type StoreOptions struct {
	// Indent is the number of spaces per nesting level when serializing.
	Indent int
}

// DefaultStoreOptions matches the hand-maintained registry layout.
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{Indent: 2}
}

// Store loads and serializes sensor registry documents.
type Store struct {
	opts StoreOptions
}

// NewStore creates a Store with the given options.
func NewStore(opts StoreOptions) *Store {
	return &Store{opts: opts}
}

// Load reads and parses the registry document at path.
func (s *Store) Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read registry: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return doc, nil
}

// Save serializes the whole document to path. It does not preserve comments
// or hand formatting, so the sync flow never calls it; coordinate updates go
// through the Patcher instead. Save exists for generic exports of a parsed
// document.
func (s *Store) Save(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(s.opts.Indent)
	if err := enc.Encode(doc); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("serialize registry: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("serialize registry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}
