package services

import (
	"context"

	"institute-seed/models"
	"institute-seed/normalize"
	"institute-seed/sources"
	"institute-seed/storage"
)

// ImportPeople importiert Personenprofile. Ein bereits vorhandenes Profil wird
// nicht überschrieben (SkipIfExists), damit manuelle Pflege erhalten bleibt.
func (im *Importer) ImportPeople(ctx context.Context, records []sources.Record) error {
	return im.each(ctx, models.KindPerson, records, im.importPerson)
}

func (im *Importer) importPerson(ctx context.Context, rec sources.Record) (string, error) {
	name := rec.Str("name", "fullName")
	if name == "" {
		return "", nil
	}
	key := normalize.Key(name)
	slug := slugFor(rec, name)
	if slug == "" {
		im.noSlug(models.KindPerson, name)
		return name, nil
	}
	if im.state.BySlug(models.KindPerson, slug) != nil || im.state.ByKey(models.KindPerson, key) != nil {
		im.duplicate(models.KindPerson)
		return slug, nil
	}

	build := func(ctx context.Context, _ *models.Document) (models.Fields, error) {
		category := rec.Category
		if c := rec.Str("category", "type"); c != "" {
			category = c
		}
		person := models.Person{
			FullName: name,
			Slug:     slug,
			Type:     models.PersonTypeFromCategory(category),
			Titles:   rec.Str("titles", "title"),
			Position: rec.Str("position", "role"),
			Phone:    rec.Str("phone", "tel"),
			Email:    rec.Str("email", "mail"),
		}
		if dept := im.resolver.ResolveDepartment(ctx, rec.Str("department", "unit", "departmentName")); dept != nil {
			person.Department = dept.ID
		}
		return models.ToFields(person)
	}

	out, err := im.up.upsert(ctx, models.KindPerson, storage.Filter{Field: "slug", Value: slug, Fold: true}, SkipIfExists, build)
	if err != nil {
		return slug, err
	}
	im.finish(models.KindPerson, key, slug, slug, out)
	return slug, nil
}
