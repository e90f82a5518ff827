package services

import (
	"context"
	"fmt"

	"institute-seed/models"
	"institute-seed/storage"
)

// PublishError meldet ein fehlgeschlagenes Veröffentlichen. Der Aufrufer
// protokolliert es; Anlage bzw. Update bleiben bestehen.
type PublishError struct {
	Kind models.Kind
	ID   string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher veröffentlicht Dokumente ohne Wiederholung.
type Publisher struct {
	repo storage.Repository
}

// NewPublisher erstellt einen Publisher.
func NewPublisher(repo storage.Repository) *Publisher {
	return &Publisher{repo: repo}
}

// Publish fordert die Veröffentlichung an und gibt bei Fehlschlag *PublishError zurück.
func (p *Publisher) Publish(ctx context.Context, kind models.Kind, id string) error {
	if err := p.repo.Publish(ctx, kind, id); err != nil {
		return &PublishError{Kind: kind, ID: id, Err: err}
	}
	return nil
}
