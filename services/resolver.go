package services

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"institute-seed/models"
	"institute-seed/normalize"
	"institute-seed/sources"
	"institute-seed/storage"
)

// Resolver löst Namensverweise gegen den Laufzustand auf. Themen und Partner
// werden bei Bedarf als Stub angelegt; alles andere bleibt ungelöst (nil).
type Resolver struct {
	up      *upserter
	state   *State
	summary *Summary
	metrics *Metrics
	logger  *zap.Logger
}

// ResolvePerson sucht zuerst per Slug, dann per normalisiertem Namen.
// Danach wird im Store per abgeleitetem Slug nachgesehen.
func (r *Resolver) ResolvePerson(ctx context.Context, ref sources.Ref) *models.Document {
	if ref.Empty() {
		return nil
	}
	explicit := strings.ToLower(strings.TrimSpace(ref.Slug))
	slug := explicit
	if slug == "" {
		slug = ref.Name
	}
	if doc := r.state.BySlug(models.KindPerson, slug); doc != nil {
		return doc
	}
	key := normalize.Key(ref.Name)
	if doc := r.state.ByKey(models.KindPerson, key); doc != nil {
		return doc
	}

	derived := explicit
	if derived == "" {
		derived = normalize.StableSlug(ref.Name)
	}
	if derived != "" {
		doc, err := r.up.repo.FindOne(ctx, models.KindPerson, storage.Filter{Field: "slug", Value: derived, Fold: true})
		if err != nil {
			r.logger.Warn("Person lookup failed, leaving reference unresolved",
				zap.String("ref", ref.Label()), zap.Error(err))
			return nil
		}
		if doc != nil {
			r.state.Register(models.KindPerson, normalize.Key(doc.Name()), doc.Slug(), doc)
			return doc
		}
	}

	r.unresolved(models.KindPerson, ref.Label())
	return nil
}

// ResolvePeople löst eine Liste auf; ungelöste und doppelte Verweise entfallen.
func (r *Resolver) ResolvePeople(ctx context.Context, refs []sources.Ref) []string {
	var ids []string
	for _, ref := range refs {
		if doc := r.ResolvePerson(ctx, ref); doc != nil {
			ids = appendUnique(ids, doc.ID)
		}
	}
	return ids
}

// ResolveDepartment sucht eine Abteilung per Namen, zuerst im Zustand, dann im Store
// (für Altdaten, die auf noch nicht importierte Abteilungen zeigen).
func (r *Resolver) ResolveDepartment(ctx context.Context, name string) *models.Document {
	key := normalize.Key(name)
	if key == "" {
		return nil
	}
	if doc := r.state.ByKey(models.KindDepartment, key); doc != nil {
		return doc
	}
	doc, err := r.up.repo.FindOne(ctx, models.KindDepartment, storage.Filter{Field: "name", Value: name, Fold: true})
	if err != nil {
		r.logger.Warn("Department lookup failed, leaving reference unresolved",
			zap.String("ref", name), zap.Error(err))
		return nil
	}
	if doc == nil {
		r.unresolved(models.KindDepartment, name)
		return nil
	}
	r.state.Register(models.KindDepartment, key, doc.Slug(), doc)
	return doc
}

// ResolveDepartments löst mehrere Abteilungsnamen auf.
func (r *Resolver) ResolveDepartments(ctx context.Context, names []string) []string {
	var ids []string
	for _, name := range names {
		if doc := r.ResolveDepartment(ctx, name); doc != nil {
			ids = appendUnique(ids, doc.ID)
		}
	}
	return ids
}

// ResolveOrCreateTheme liefert das Thema zum Namen und legt es bei Bedarf an.
func (r *Resolver) ResolveOrCreateTheme(ctx context.Context, name string) *models.Document {
	return r.resolveOrCreate(ctx, models.KindTheme, name, func(name, slug string) any {
		return models.Theme{Name: name, Slug: slug, Summary: ""}
	})
}

// ResolveOrCreatePartner liefert den Partner zum Namen und legt ihn bei Bedarf an.
func (r *Resolver) ResolveOrCreatePartner(ctx context.Context, name string) *models.Document {
	return r.resolveOrCreate(ctx, models.KindPartner, name, func(name, slug string) any {
		return models.Partner{Name: name, Slug: slug, Description: ""}
	})
}

func (r *Resolver) resolveOrCreate(ctx context.Context, kind models.Kind, name string, stub func(name, slug string) any) *models.Document {
	name = strings.TrimSpace(name)
	key := normalize.Key(name)
	if key == "" {
		return nil
	}
	if doc := r.state.ByKey(kind, key); doc != nil {
		return doc
	}

	slug := normalize.StableSlug(name)
	out, err := r.up.upsert(ctx, kind, storage.Filter{Field: "name", Value: name, Fold: true}, SkipIfExists,
		func(context.Context, *models.Document) (models.Fields, error) {
			return models.ToFields(stub(name, slug))
		})
	if err != nil {
		r.logger.Warn("Could not resolve or create stub, leaving reference unresolved",
			zap.String("kind", string(kind)), zap.String("ref", name), zap.Error(err))
		r.summary.Kind(kind).Failed++
		r.metrics.failed(kind)
		return nil
	}

	r.summary.record(kind, out)
	r.metrics.observe(kind, out)
	if out.Action == Created {
		r.logger.Info("Auto-created stub", zap.String("kind", string(kind)), zap.String("key", name))
	}
	if out.PublishErr != nil {
		r.logger.Warn("Publish failed", zap.String("kind", string(kind)), zap.String("key", name), zap.Error(out.PublishErr))
	}
	r.state.Register(kind, key, out.Doc.Slug(), out.Doc)
	return out.Doc
}

// ResolveOrCreateAll löst eine Namensliste für Themen oder Partner auf.
func (r *Resolver) ResolveOrCreateAll(ctx context.Context, kind models.Kind, names []string) []string {
	var ids []string
	for _, name := range names {
		var doc *models.Document
		switch kind {
		case models.KindTheme:
			doc = r.ResolveOrCreateTheme(ctx, name)
		case models.KindPartner:
			doc = r.ResolveOrCreatePartner(ctx, name)
		}
		if doc != nil {
			ids = appendUnique(ids, doc.ID)
		}
	}
	return ids
}

// unresolved protokolliert einen ungelösten Verweis samt ähnlichstem bekannten Namen.
func (r *Resolver) unresolved(kind models.Kind, ref string) {
	if ce := r.logger.Check(zap.DebugLevel, "Reference unresolved, relation omitted"); ce != nil {
		fields := []zap.Field{zap.String("kind", string(kind)), zap.String("ref", ref)}
		if hint := closestName(ref, r.state.Names(kind)); hint != "" {
			fields = append(fields, zap.String("did_you_mean", hint))
		}
		ce.Write(fields...)
	}
}

func closestName(ref string, names []string) string {
	if len(names) == 0 {
		return ""
	}
	words := strings.Fields(normalize.StripDiacritics(ref))
	if len(words) == 0 {
		return ""
	}
	// Nach dem Nachnamen suchen; ganze Namen matchen selten als Teilfolge.
	ranks := fuzzy.RankFindNormalizedFold(words[len(words)-1], names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
