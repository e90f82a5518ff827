package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"institute-seed/models"
	"institute-seed/sources"
	"institute-seed/storage"
)

// ErrRunInProgress wird gemeldet, wenn bereits ein Lauf aktiv ist.
var ErrRunInProgress = errors.New("seed run already in progress")

// Stage ist ein Zustand des Laufs.
type Stage string

const (
	StageDepartments         Stage = "departments"
	StageSupportUnits        Stage = "support-units"
	StagePeople              Stage = "people"
	StageLinkDepartmentLeads Stage = "link-department-leads"
	StagePublications        Stage = "publications"
	StageProjects            Stage = "projects"
	StageEvents              Stage = "events"
	StageSeminars            Stage = "seminars"
	StageDone                Stage = "done"
)

// Stages ist die feste Abhängigkeitsreihenfolge eines Laufs.
var Stages = []Stage{
	StageDepartments,
	StageSupportUnits,
	StagePeople,
	StageLinkDepartmentLeads,
	StagePublications,
	StageProjects,
	StageEvents,
	StageSeminars,
}

type stageSource struct {
	kind     models.Kind
	required bool
	run      func(*Importer, context.Context, []sources.Record) error
}

var stageSources = map[Stage]stageSource{
	StageDepartments:  {models.KindDepartment, true, (*Importer).ImportDepartments},
	StageSupportUnits: {models.KindSupportUnit, false, (*Importer).ImportSupportUnits},
	StagePeople:       {models.KindPerson, true, (*Importer).ImportPeople},
	StagePublications: {models.KindPublication, true, (*Importer).ImportPublications},
	StageProjects:     {models.KindProject, true, (*Importer).ImportProjects},
	StageEvents:       {models.KindEvent, false, (*Importer).ImportEvents},
	StageSeminars:     {models.KindSeminar, false, (*Importer).ImportSeminars},
}

// Source liefert die Datensätze je Art.
type Source interface {
	LoadRequired(ctx context.Context, kind models.Kind) ([]sources.Record, error)
	LoadOptional(ctx context.Context, kind models.Kind) ([]sources.Record, error)
	Root() string
}

// Runner führt die Importe strikt nacheinander in Abhängigkeitsreihenfolge aus.
type Runner struct {
	repo    storage.Repository
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewRunner erstellt den Run-Controller. metrics darf nil sein.
func NewRunner(repo storage.Repository, metrics *Metrics, logger *zap.Logger) *Runner {
	return &Runner{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Run führt einen vollständigen Lauf aus. Ein Fehler bedeutet Abbruch:
// fataler Ladefehler oder abgebrochener Kontext. Fehler einzelner Datensätze
// stehen nur in der Summary.
func (r *Runner) Run(ctx context.Context, src Source) (*Summary, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	summary := newSummary(src.Root(), r.now())
	im := NewImporter(r.repo, NewState(), summary, r.metrics, r.logger)
	r.logger.Info("Seed run started", zap.String("data_root", src.Root()))

	for _, stage := range Stages {
		summary.Stage = stage
		if err := ctx.Err(); err != nil {
			return r.stop(summary, err)
		}
		r.logger.Info("Stage started", zap.String("stage", string(stage)))
		if err := r.runStage(ctx, im, src, stage); err != nil {
			return r.stop(summary, err)
		}
	}

	summary.Stage = StageDone
	summary.FinishedAt = r.now()
	summary.log(r.logger)
	r.metrics.finished(summary)
	return summary, nil
}

func (r *Runner) runStage(ctx context.Context, im *Importer, src Source, stage Stage) error {
	if stage == StageLinkDepartmentLeads {
		return im.LinkDepartmentLeads(ctx)
	}
	s, ok := stageSources[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}

	load := src.LoadOptional
	if s.required {
		load = src.LoadRequired
	}
	records, err := load(ctx, s.kind)
	if err != nil {
		return err
	}
	return s.run(im, ctx, records)
}

func (r *Runner) stop(summary *Summary, err error) (*Summary, error) {
	summary.FinishedAt = r.now()
	r.logger.Error("Seed run aborted", zap.String("stage", string(summary.Stage)), zap.Error(err))
	summary.log(r.logger)
	return summary, err
}
