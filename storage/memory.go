package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"institute-seed/models"
	"institute-seed/normalize"
)

// MemoryRepository ist ein Content-Store im Speicher (Dry-Run, Tests).
type MemoryRepository struct {
	mu   sync.Mutex
	docs map[models.Kind][]*models.Document
	now  func() time.Time
}

// NewMemoryRepository erstellt einen leeren Speicher-Store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs: make(map[models.Kind][]*models.Document),
		now:  time.Now,
	}
}

func (m *MemoryRepository) FindOne(ctx context.Context, kind models.Kind, filter Filter) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.docs[kind] {
		if matches(doc.Fields.String(filter.Field), filter) {
			return cloneDocument(doc), nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) Create(ctx context.Context, kind models.Kind, fields models.Fields) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if slug := fields.String("slug"); slug != "" {
		for _, doc := range m.docs[kind] {
			if doc.Slug() == slug {
				return nil, fmt.Errorf("create %s: slug %q already taken", kind, slug)
			}
		}
	}
	doc := &models.Document{ID: uuid.NewString(), Kind: kind, Fields: fields.Clone()}
	m.docs[kind] = append(m.docs[kind], doc)
	return cloneDocument(doc), nil
}

func (m *MemoryRepository) Update(ctx context.Context, kind models.Kind, id string, fields models.Fields) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.find(kind, id)
	if doc == nil {
		return nil, fmt.Errorf("update %s %s: %w", kind, id, ErrNotFound)
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	return cloneDocument(doc), nil
}

func (m *MemoryRepository) Publish(ctx context.Context, kind models.Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.find(kind, id)
	if doc == nil {
		return fmt.Errorf("publish %s %s: %w", kind, id, ErrNotFound)
	}
	now := m.now()
	doc.PublishedAt = &now
	return nil
}

// List gibt alle Dokumente einer Art in Einfügereihenfolge zurück.
func (m *MemoryRepository) List(kind models.Kind) []*models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Document, 0, len(m.docs[kind]))
	for _, doc := range m.docs[kind] {
		out = append(out, cloneDocument(doc))
	}
	return out
}

// Count gibt die Anzahl Dokumente einer Art zurück.
func (m *MemoryRepository) Count(kind models.Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[kind])
}

func (m *MemoryRepository) find(kind models.Kind, id string) *models.Document {
	for _, doc := range m.docs[kind] {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

func matches(value string, filter Filter) bool {
	if filter.empty() {
		return false
	}
	if filter.Fold {
		return normalize.Key(value) == normalize.Key(filter.Value)
	}
	return value == filter.Value
}

func cloneDocument(doc *models.Document) *models.Document {
	out := *doc
	out.Fields = doc.Fields.Clone()
	if doc.PublishedAt != nil {
		t := *doc.PublishedAt
		out.PublishedAt = &t
	}
	return &out
}
