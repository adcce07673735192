package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/logger"
)

// DefaultSlot is the key the serialized collection lives under.
const DefaultSlot = "myCollections"

// ErrInvalidImport is returned when imported content is not an array of items.
var ErrInvalidImport = errors.New("import must be a JSON array")

// Backend persists the serialized collection in a single slot.
//
// Update must run fn and write its result as one transactional unit so
// that concurrent read-modify-write cycles never lose each other's changes.
// fn receives nil when the slot is empty.
type Backend interface {
	Get(ctx context.Context) ([]byte, error)
	Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error
	Ping(ctx context.Context) error
	Close() error
}

// Store owns the ordered, newest-first collection of saved items.
type Store struct {
	backend Backend
	logger  logger.Logger
}

// NewStore creates a store on top of backend.
func NewStore(backend Backend, log logger.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  log,
	}
}

// Load returns the current collection, newest first.
// An empty slot or a value that fails to parse yields an empty collection.
// Stored elements that are not objects are kept but not listed.
func (s *Store) Load(ctx context.Context) ([]domain.Item, error) {
	raw, err := s.backend.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}

	elements := s.decode(raw)
	items := make([]domain.Item, 0, len(elements))
	for _, el := range elements {
		if item, ok := itemOf(el); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Add inserts item at the front of the collection.
func (s *Store) Add(ctx context.Context, item domain.Item) error {
	el, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	err = s.backend.Update(ctx, func(current []byte) ([]byte, error) {
		elements := s.decode(current)
		elements = append([]json.RawMessage{el}, elements...)
		return encode(elements)
	})
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}

	s.logger.Debug("item added to collection",
		logger.String("id", item.ID),
		logger.String("hostname", item.Hostname))
	return nil
}

// Delete removes every item with the given id. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	removed := 0
	err := s.backend.Update(ctx, func(current []byte) ([]byte, error) {
		elements := s.decode(current)
		kept := make([]json.RawMessage, 0, len(elements))
		removed = 0
		for _, el := range elements {
			if item, ok := itemOf(el); ok && item.ID == id {
				removed++
				continue
			}
			kept = append(kept, el)
		}
		return encode(kept)
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.Debug("delete applied to collection",
		logger.String("id", id),
		logger.Int("removed", removed))
	return nil
}

// Export serializes the full collection for download. Elements are
// written back exactly as they were stored, only re-indented.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	raw, err := s.backend.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}

	data, err := json.MarshalIndent(s.decode(raw), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return data, nil
}

// Import replaces the whole collection with data and returns the number of
// elements stored. Any JSON array is accepted and kept as-is; anything else
// is rejected with ErrInvalidImport and the existing collection is left
// untouched.
func (s *Store) Import(ctx context.Context, data []byte) (int, error) {
	elements, err := parseImport(data)
	if err != nil {
		return 0, err
	}

	err = s.backend.Update(ctx, func([]byte) ([]byte, error) {
		return encode(elements)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import collection: %w", err)
	}

	s.logger.Info("collection imported", logger.Int("count", len(elements)))
	return len(elements), nil
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) decode(raw []byte) []json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []json.RawMessage{}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		s.logger.Error("error parsing collection, treating as empty", logger.Error(err))
		return []json.RawMessage{}
	}
	if elements == nil {
		return []json.RawMessage{}
	}
	return elements
}

func encode(elements []json.RawMessage) ([]byte, error) {
	if elements == nil {
		elements = []json.RawMessage{}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return data, nil
}

func parseImport(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidImport
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if elements == nil {
		elements = []json.RawMessage{}
	}
	return elements, nil
}

// itemOf reads a stored element as an item. Scalar fields of any JSON type
// are taken by their literal text, so numeric ids from older exports still
// match. Elements that are not objects are reported as not ok.
func itemOf(el json.RawMessage) (domain.Item, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(el, &fields); err != nil || fields == nil {
		return domain.Item{}, false
	}

	return domain.Item{
		ID:        scalar(fields["id"]),
		URL:       scalar(fields["url"]),
		Title:     scalar(fields["title"]),
		Notes:     scalar(fields["notes"]),
		DateAdded: scalar(fields["dateAdded"]),
		Hostname:  scalar(fields["hostname"]),
	}, true
}

func scalar(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return ""
		}
		return s
	case 'n', '{', '[':
		return ""
	default:
		// number or boolean
		return string(v)
	}
}
