package services

import (
	"context"

	"institute-seed/models"
	"institute-seed/normalize"
	"institute-seed/sources"
	"institute-seed/storage"
)

// ImportProjects importiert Projekte mit Leitung, Team, Domänen,
// Publikationen sowie automatisch angelegten Themen und Partnern.
func (im *Importer) ImportProjects(ctx context.Context, records []sources.Record) error {
	return im.each(ctx, models.KindProject, records, im.importProject)
}

func (im *Importer) importProject(ctx context.Context, rec sources.Record) (string, error) {
	title := rec.Str("title", "name")
	if title == "" {
		return "", nil
	}
	slug := slugFor(rec, title)
	if slug == "" {
		return title, nil
	}
	if im.state.BySlug(models.KindProject, slug) != nil {
		im.duplicate(models.KindProject)
		return slug, nil
	}

	build := func(ctx context.Context, _ *models.Document) (models.Fields, error) {
		abstract := rec.Text("abstract", "description", "summary")
		project := models.Project{
			Title:        title,
			Slug:         slug,
			Abstract:     abstract,
			Phase:        rec.Str("phase", "status"),
			Region:       rec.Str("region"),
			Body:         abstract,
			DocURL:       rec.Str("docUrl", "documentUrl", "doc"),
			OfficialURL:  rec.Str("officialUrl", "url", "website"),
			Members:      im.resolver.ResolvePeople(ctx, rec.Refs("team", "members")),
			Domains:      im.resolver.ResolveDepartments(ctx, rec.Strings("domains", "domain")),
			Publications: im.linkPublications(rec.Strings("publications", "publication")),
			Themes:       im.resolver.ResolveOrCreateAll(ctx, models.KindTheme, rec.Strings("themes", "theme")),
			Partners:     im.resolver.ResolveOrCreateAll(ctx, models.KindPartner, rec.Strings("partners", "partner")),
		}
		if lead := im.resolver.ResolvePerson(ctx, rec.Ref("lead", "coordinator")); lead != nil {
			project.Lead = lead.ID
		}
		return models.ToFields(project)
	}

	out, err := im.up.upsert(ctx, models.KindProject, storage.Filter{Field: "slug", Value: slug}, AlwaysRefresh, build)
	if err != nil {
		return slug, err
	}
	im.finish(models.KindProject, slug, slug, slug, out)
	return slug, nil
}

// linkPublications verknüpft nur Publikationen, deren abgeleiteter Slug in diesem Lauf importiert wurde.
func (im *Importer) linkPublications(titles []string) []string {
	var ids []string
	for _, t := range titles {
		if doc := im.state.BySlug(models.KindPublication, normalize.StableSlug(t)); doc != nil {
			ids = appendUnique(ids, doc.ID)
		}
	}
	return ids
}
