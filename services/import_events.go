package services

import (
	"context"

	"institute-seed/models"
	"institute-seed/sources"
	"institute-seed/storage"
)

// ImportEvents importiert Veranstaltungen. Vorhandene werden nur erneut veröffentlicht.
func (im *Importer) ImportEvents(ctx context.Context, records []sources.Record) error {
	return im.each(ctx, models.KindEvent, records, func(ctx context.Context, rec sources.Record) (string, error) {
		return im.importListing(ctx, models.KindEvent, rec, func(title, slug string) any {
			return models.Event{
				Title:    title,
				Slug:     slug,
				Date:     rec.Str("date", "startDate"),
				Location: rec.Str("location", "place"),
				Summary:  rec.Text("summary", "description"),
				Image:    rec.Str("image", "img"),
				Link:     rec.Str("link", "url"),
			}
		})
	})
}

// ImportSeminars importiert Seminare. Vorhandene werden nur erneut veröffentlicht.
func (im *Importer) ImportSeminars(ctx context.Context, records []sources.Record) error {
	return im.each(ctx, models.KindSeminar, records, func(ctx context.Context, rec sources.Record) (string, error) {
		return im.importListing(ctx, models.KindSeminar, rec, func(title, slug string) any {
			return models.Seminar{
				Title:    title,
				Slug:     slug,
				Date:     rec.Str("date"),
				Speaker:  rec.Str("speaker", "presenter"),
				Location: rec.Str("location", "place"),
				Summary:  rec.Text("summary", "description", "abstract"),
			}
		})
	})
}

func (im *Importer) importListing(ctx context.Context, kind models.Kind, rec sources.Record, payload func(title, slug string) any) (string, error) {
	title := rec.Str("title", "name")
	if title == "" {
		return "", nil
	}
	slug := slugFor(rec, title)
	if slug == "" {
		return title, nil
	}
	if im.state.BySlug(kind, slug) != nil {
		im.duplicate(kind)
		return slug, nil
	}

	out, err := im.up.upsert(ctx, kind, storage.Filter{Field: "slug", Value: slug}, PublishOnly,
		func(context.Context, *models.Document) (models.Fields, error) {
			return models.ToFields(payload(title, slug))
		})
	if err != nil {
		return slug, err
	}
	im.finish(kind, slug, slug, slug, out)
	return slug, nil
}
