package services

import (
	"context"
	"fmt"

	"institute-seed/models"
	"institute-seed/storage"
)

// UpdatePolicy legt fest, was mit einem bereits vorhandenen Dokument passiert.
type UpdatePolicy int

const (
	// AlwaysRefresh überschreibt vorhandene Dokumente mit den frisch transformierten Daten.
	AlwaysRefresh UpdatePolicy = iota
	// SkipIfExists lässt vorhandene Dokumente unangetastet (Personen: manuell gepflegte Profile).
	SkipIfExists
	// PublishOnly veröffentlicht vorhandene Dokumente nur erneut (Events, Seminare).
	PublishOnly
)

func (p UpdatePolicy) String() string {
	switch p {
	case AlwaysRefresh:
		return "alwaysRefresh"
	case SkipIfExists:
		return "skipIfExists"
	case PublishOnly:
		return "publishOnly"
	}
	return fmt.Sprintf("UpdatePolicy(%d)", int(p))
}

// Action ist das Ergebnis eines Upserts.
type Action int

const (
	Created Action = iota
	Updated
	Skipped
	PublishedOnly
)

func (a Action) String() string {
	switch a {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	case PublishedOnly:
		return "published"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Outcome beschreibt, was mit einem Datensatz passiert ist.
type Outcome struct {
	Action Action
	Doc    *models.Document
	// PublishErr ist gesetzt, wenn die Veröffentlichung fehlschlug.
	PublishErr error
}

// PayloadFunc baut die Felder für Anlage (existing == nil) oder Update.
type PayloadFunc func(ctx context.Context, existing *models.Document) (models.Fields, error)

type upserter struct {
	repo      storage.Repository
	publisher *Publisher
}

// upsert prüft per natürlichem Schlüssel, ob das Dokument existiert, und
// legt es an oder wendet policy an. Angelegte und aktualisierte Dokumente
// werden veröffentlicht.
func (u *upserter) upsert(ctx context.Context, kind models.Kind, filter storage.Filter, policy UpdatePolicy, build PayloadFunc) (Outcome, error) {
	existing, err := u.repo.FindOne(ctx, kind, filter)
	if err != nil {
		return Outcome{}, err
	}

	if existing != nil {
		switch policy {
		case SkipIfExists:
			return Outcome{Action: Skipped, Doc: existing}, nil
		case PublishOnly:
			out := Outcome{Action: PublishedOnly, Doc: existing}
			out.PublishErr = u.publisher.Publish(ctx, kind, existing.ID)
			return out, nil
		}

		fields, err := build(ctx, existing)
		if err != nil {
			return Outcome{}, fmt.Errorf("build %s payload: %w", kind, err)
		}
		doc, err := u.repo.Update(ctx, kind, existing.ID, fields)
		if err != nil {
			return Outcome{}, err
		}
		out := Outcome{Action: Updated, Doc: doc}
		out.PublishErr = u.publisher.Publish(ctx, kind, doc.ID)
		return out, nil
	}

	fields, err := build(ctx, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("build %s payload: %w", kind, err)
	}
	doc, err := u.repo.Create(ctx, kind, fields)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Action: Created, Doc: doc}
	out.PublishErr = u.publisher.Publish(ctx, kind, doc.ID)
	return out, nil
}
