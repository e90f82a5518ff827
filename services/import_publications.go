package services

import (
	"context"

	"institute-seed/models"
	"institute-seed/sources"
	"institute-seed/storage"
)

// ImportPublications importiert Veröffentlichungen. Autoren, die keiner
// bekannten Person entsprechen, entfallen aus der Relation.
func (im *Importer) ImportPublications(ctx context.Context, records []sources.Record) error {
	return im.each(ctx, models.KindPublication, records, im.importPublication)
}

func (im *Importer) importPublication(ctx context.Context, rec sources.Record) (string, error) {
	title := rec.Str("title", "name")
	if title == "" {
		return "", nil
	}
	slug := slugFor(rec, title)
	if slug == "" {
		return title, nil
	}
	if im.state.BySlug(models.KindPublication, slug) != nil {
		im.duplicate(models.KindPublication)
		return slug, nil
	}

	build := func(ctx context.Context, _ *models.Document) (models.Fields, error) {
		pub := models.Publication{
			Title:       title,
			Slug:        slug,
			Kind:        rec.Str("kind", "type", "category"),
			Description: rec.Text("description", "abstract", "summary"),
			ExternalURL: rec.Str("url", "link", "externalUrl"),
			DocumentURL: rec.Str("documentUrl", "pdf", "file", "document"),
			Metadata:    rec.Map("metadata"),
			Authors:     im.resolver.ResolvePeople(ctx, rec.Refs("authors", "author")),
		}
		if year, ok := rec.Int("year"); ok {
			pub.Year = &year
		}
		if dept := im.resolver.ResolveDepartment(ctx, rec.Str("domain", "department")); dept != nil {
			pub.Domain = dept.ID
		}
		return models.ToFields(pub)
	}

	out, err := im.up.upsert(ctx, models.KindPublication, storage.Filter{Field: "slug", Value: slug}, AlwaysRefresh, build)
	if err != nil {
		return slug, err
	}
	im.finish(models.KindPublication, slug, slug, slug, out)
	return slug, nil
}
