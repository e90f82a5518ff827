package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"institute-seed/models"
	"institute-seed/normalize"
	"institute-seed/sources"
	"institute-seed/storage"
)

// Importer überführt die Datensätze eines Laufs in den Content-Store.
// Eine Instanz gehört genau einem Lauf.
type Importer struct {
	up       *upserter
	state    *State
	resolver *Resolver
	summary  *Summary
	metrics  *Metrics
	logger   *zap.Logger
}

// NewImporter erstellt einen Importer mit eigenem Zustand.
func NewImporter(repo storage.Repository, state *State, summary *Summary, metrics *Metrics, logger *zap.Logger) *Importer {
	up := &upserter{repo: repo, publisher: NewPublisher(repo)}
	return &Importer{
		up:      up,
		state:   state,
		summary: summary,
		metrics: metrics,
		logger:  logger,
		resolver: &Resolver{
			up:      up,
			state:   state,
			summary: summary,
			metrics: metrics,
			logger:  logger,
		},
	}
}

// Resolver gibt den Verweis-Auflöser des Laufs zurück.
func (im *Importer) Resolver() *Resolver {
	return im.resolver
}

// recordFunc importiert einen Datensatz und gibt dessen natürlichen Schlüssel zurück.
type recordFunc func(ctx context.Context, rec sources.Record) (key string, err error)

// each verarbeitet alle Datensätze einer Art. Fehler eines Datensatzes werden
// protokolliert und brechen nichts ab; nur ein abgebrochener Kontext stoppt
// vor dem nächsten Datensatz.
func (im *Importer) each(ctx context.Context, kind models.Kind, records []sources.Record, fn recordFunc) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Ein begonnener Datensatz wird auch bei Abbruch zu Ende geschrieben.
		key, err := im.safeCall(context.WithoutCancel(ctx), rec, fn)
		if err != nil {
			im.logger.Error("Record import failed",
				zap.String("kind", string(kind)),
				zap.String("key", key),
				zap.Int("index", rec.Index),
				zap.Error(err))
			im.summary.Kind(kind).Failed++
			im.metrics.failed(kind)
		}
	}
	return nil
}

func (im *Importer) safeCall(ctx context.Context, rec sources.Record, fn recordFunc) (key string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, rec)
}

// finish protokolliert das Ergebnis eines Upserts und registriert das Dokument.
func (im *Importer) finish(kind models.Kind, key, slug, label string, out Outcome) {
	im.summary.record(kind, out)
	im.metrics.observe(kind, out)
	im.state.Register(kind, key, slug, out.Doc)

	log := im.logger.With(zap.String("kind", string(kind)), zap.String("key", label))
	switch out.Action {
	case Created:
		log.Info("Created", zap.String("id", out.Doc.ID))
	case Updated:
		log.Info("Updated", zap.String("id", out.Doc.ID))
	case Skipped:
		log.Info("Skipped, already exists", zap.String("id", out.Doc.ID))
	case PublishedOnly:
		log.Info("Already exists, published", zap.String("id", out.Doc.ID))
	}
	if out.PublishErr != nil {
		log.Warn("Publish failed", zap.Error(out.PublishErr))
	}
}

// duplicate meldet einen funktional doppelten Datensatz derselben Quelle; er wird still übersprungen.
func (im *Importer) duplicate(kind models.Kind) {
	im.summary.Kind(kind).Skipped++
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// slugFor liefert den Slug eines Datensatzes. Explizite Slugs werden
// kleingeschrieben, damit "Ana-Ionescu" und "ana-ionescu" dasselbe Dokument treffen.
func slugFor(rec sources.Record, name string) string {
	if s := strings.ToLower(strings.TrimSpace(rec.Str("slug"))); s != "" {
		return s
	}
	return normalize.StableSlug(name)
}

// noSlug protokolliert einen Datensatz, aus dessen Namen kein Slug entsteht.
func (im *Importer) noSlug(kind models.Kind, name string) {
	im.logger.Warn("Record has no usable slug, skipping",
		zap.String("kind", string(kind)), zap.String("name", name))
	im.summary.Kind(kind).Skipped++
}
