// Package storage enthält den Vertrag zum Content-Store und seine Backends.
package storage

import (
	"context"
	"errors"
	"strings"

	"institute-seed/models"
	"institute-seed/normalize"
)

// ErrNotFound wird gemeldet, wenn ein Dokument für Update/Publish nicht existiert.
var ErrNotFound = errors.New("document not found")

// Filter ist ein Gleichheitsvergleich auf einem Feld. Fold vergleicht ohne
// Beachtung von Groß-/Kleinschreibung und Diakritika.
type Filter struct {
	Field string
	Value string
	Fold  bool
}

// empty meldet einen Filter, der nichts treffen darf: ohne Wert oder, bei
// Fold, ohne Buchstaben und Ziffern.
func (f Filter) empty() bool {
	if f.Fold {
		return normalize.Key(f.Value) == ""
	}
	return strings.TrimSpace(f.Value) == ""
}

// Repository ist der Vertrag zum Content-Store, den die Engine nutzt.
type Repository interface {
	// FindOne sucht inklusive Entwürfen; nil, nil wenn nichts passt.
	FindOne(ctx context.Context, kind models.Kind, filter Filter) (*models.Document, error)
	Create(ctx context.Context, kind models.Kind, fields models.Fields) (*models.Document, error)
	Update(ctx context.Context, kind models.Kind, id string, fields models.Fields) (*models.Document, error)
	Publish(ctx context.Context, kind models.Kind, id string) error
}
