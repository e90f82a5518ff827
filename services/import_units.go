package services

import (
	"context"

	"go.uber.org/zap"

	"institute-seed/models"
	"institute-seed/normalize"
	"institute-seed/sources"
	"institute-seed/storage"
)

// ImportDepartments importiert Forschungs- und Lehreinheiten und merkt sich
// deren Koordinatoren für LinkDepartmentLeads.
func (im *Importer) ImportDepartments(ctx context.Context, records []sources.Record) error {
	return im.each(ctx, models.KindDepartment, records, im.importDepartment)
}

func (im *Importer) importDepartment(ctx context.Context, rec sources.Record) (string, error) {
	name := rec.Str("name", "title")
	if name == "" {
		return "", nil
	}
	key := normalize.Key(name)
	if im.state.ByKey(models.KindDepartment, key) != nil {
		im.duplicate(models.KindDepartment)
		return name, nil
	}
	slug := slugFor(rec, name)
	if slug == "" {
		im.noSlug(models.KindDepartment, name)
		return name, nil
	}

	build := func(context.Context, *models.Document) (models.Fields, error) {
		description := rec.Text("description", "shortDescription")
		return models.ToFields(models.Department{
			Name:        name,
			Slug:        slug,
			Summary:     rec.Str("summary", "subtitle"),
			Description: description,
			Body:        orDefault(rec.Text("paragraphs", "body", "content"), description),
			FocusItems:  focusItems(rec, "elements", "focus"),
			Contacts:    contactLinks(rec),
			Type:        orDefault(rec.Str("type"), "research"),
		})
	}

	out, err := im.up.upsert(ctx, models.KindDepartment, storage.Filter{Field: "name", Value: name, Fold: true}, AlwaysRefresh, build)
	if err != nil {
		return name, err
	}
	im.finish(models.KindDepartment, key, slug, name, out)

	im.state.SetLeads(DepartmentLeads{
		Key:           key,
		Name:          name,
		Coordinator:   rec.Ref("coordinator"),
		CoCoordinator: rec.Ref("coCoordinator", "co-coordinator", "co_coordinator", "cocoordinator"),
	})
	return name, nil
}

// ImportSupportUnits importiert Support-Einheiten (eigene Art, disjunkt zu Abteilungen).
func (im *Importer) ImportSupportUnits(ctx context.Context, records []sources.Record) error {
	return im.each(ctx, models.KindSupportUnit, records, im.importSupportUnit)
}

func (im *Importer) importSupportUnit(ctx context.Context, rec sources.Record) (string, error) {
	name := rec.Str("name", "title")
	if name == "" {
		return "", nil
	}
	key := normalize.Key(name)
	if im.state.ByKey(models.KindSupportUnit, key) != nil {
		im.duplicate(models.KindSupportUnit)
		return name, nil
	}
	slug := slugFor(rec, name)
	if slug == "" {
		im.noSlug(models.KindSupportUnit, name)
		return name, nil
	}

	build := func(context.Context, *models.Document) (models.Fields, error) {
		mission := rec.Text("mission", "description")
		return models.ToFields(models.SupportUnit{
			Name:     name,
			Slug:     slug,
			Summary:  rec.Str("summary", "subtitle"),
			Mission:  mission,
			Body:     orDefault(rec.Text("paragraphs", "body", "content"), mission),
			Services: focusItems(rec, "services", "elements"),
			Contacts: contactLinks(rec),
		})
	}

	out, err := im.up.upsert(ctx, models.KindSupportUnit, storage.Filter{Field: "name", Value: name, Fold: true}, AlwaysRefresh, build)
	if err != nil {
		return name, err
	}
	im.finish(models.KindSupportUnit, key, slug, name, out)
	return name, nil
}

// LinkDepartmentLeads setzt Koordinator und Co-Koordinator der Abteilungen,
// sobald die Personen bekannt sind.
func (im *Importer) LinkDepartmentLeads(ctx context.Context) error {
	for _, leads := range im.state.Leads() {
		if err := ctx.Err(); err != nil {
			return err
		}
		recCtx := context.WithoutCancel(ctx)
		dept := im.state.ByKey(models.KindDepartment, leads.Key)
		if dept == nil {
			continue
		}

		fields := models.Fields{}
		if p := im.resolver.ResolvePerson(recCtx, leads.Coordinator); p != nil {
			fields["coordinator"] = p.ID
		}
		if p := im.resolver.ResolvePerson(recCtx, leads.CoCoordinator); p != nil {
			fields["coCoordinator"] = p.ID
		}
		if len(fields) == 0 {
			continue
		}

		log := im.logger.With(zap.String("kind", string(models.KindDepartment)), zap.String("key", leads.Name))
		doc, err := im.up.repo.Update(recCtx, models.KindDepartment, dept.ID, fields)
		if err != nil {
			log.Error("Linking department leads failed", zap.Error(err))
			im.summary.Kind(models.KindDepartment).Failed++
			im.metrics.failed(models.KindDepartment)
			continue
		}
		im.state.Register(models.KindDepartment, leads.Key, doc.Slug(), doc)
		log.Info("Linked department leads", zap.Any("leads", fields))

		if err := im.up.publisher.Publish(recCtx, models.KindDepartment, doc.ID); err != nil {
			log.Warn("Publish failed", zap.Error(err))
			im.summary.Kind(models.KindDepartment).PublishFailed++
			im.metrics.publishFailed(models.KindDepartment)
		}
	}
	return nil
}

// focusItems baut Schwerpunkte aus einer Elementliste: text wird Titel,
// content Beschreibung; Elemente ohne beides entfallen.
func focusItems(rec sources.Record, keys ...string) []models.FocusItem {
	items := []models.FocusItem{}
	for _, el := range rec.Objects(keys...) {
		title := el.Str("text", "title", "name")
		description := el.Text("content", "description")
		if title == "" && description == "" {
			continue
		}
		items = append(items, models.FocusItem{Title: title, Description: description})
	}
	return items
}

func contactLinks(rec sources.Record) []models.ContactLink {
	links := []models.ContactLink{}
	for _, c := range rec.Objects("contacts", "links", "socials") {
		url := c.Str("url", "href", "link")
		if url == "" {
			continue
		}
		links = append(links, models.ContactLink{
			Label: orDefault(c.Str("label", "name", "title"), url),
			URL:   url,
			Icon:  c.Str("icon"),
		})
	}
	return links
}
