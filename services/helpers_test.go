package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"institute-seed/models"
	"institute-seed/sources"
	"institute-seed/storage"
)

// dataset beschreibt einen Quellbaum; nil-Felder werden nicht geschrieben.
type dataset struct {
	Departments  any
	SupportUnits any
	People       any
	Publications any
	Projects     any
	Events       any
	Seminars     any
}

func (d dataset) write(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]any{
		"departments/researchUnitsData.json": d.Departments,
		"departments/supportUnitsData.json":  d.SupportUnits,
		"staff/staffData.json":               d.People,
		"staff/pubData.json":                 d.Publications,
		"staff/proData.json":                 d.Projects,
		"news&events/eventsData.json":        d.Events,
		"news&events/seminarsData.json":      d.Seminars,
	}
	for rel, v := range files {
		if v == nil {
			continue
		}
		data, err := json.Marshal(v)
		require.NoError(t, err)
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
	return root
}

// minimal liefert alle Pflichtquellen leer.
func minimal() dataset {
	return dataset{
		Departments:  []any{},
		People:       map[string]any{},
		Publications: []any{},
		Projects:     []any{},
	}
}

type obj = map[string]any

func fullDataset() dataset {
	return dataset{
		Departments: []any{
			obj{
				"name":          "Artificial Intelligence Lab",
				"summary":       "Machine learning research",
				"description":   []any{"We build models.", "", "And we test them."},
				"elements":      []any{obj{"text": "Edge computing", "content": "Small devices"}, obj{"other": 1}},
				"contacts":      []any{obj{"label": "Website", "url": "https://ai.example.org", "icon": "globe"}},
				"coordinator":   "Ștefan Popescu",
				"coCoordinator": obj{"name": "Maria Dan"},
			},
			obj{"name": "Quantum Systems", "type": "academic"},
			obj{"name": "   "},
		},
		SupportUnits: []any{
			obj{"name": "IT Support", "mission": "Keep things running", "services": []any{obj{"text": "Helpdesk"}}},
		},
		People: obj{
			"Researchers": []any{
				obj{"name": "Stefan Popescu", "department": "artificial intelligence lab", "email": "stefan@example.org"},
				obj{"name": "Ion Pop", "department": "Unknown Unit"},
			},
			"Personal":             []any{obj{"name": "Maria Dan", "position": "Secretary"}},
			"Visiting Researchers": []any{obj{"name": "Ana Ionescu"}},
		},
		Publications: []any{
			obj{"title": "Learning at the Edge", "year": 2021, "authors": []any{"Ana Ionescu", "Nobody Known"}, "domain": "Artificial Intelligence Lab", "metadata": obj{"journal": "J. Edge"}},
			obj{"title": "Quantum Notes", "year": "n/a", "authors": "Ion Pop; Stefan Popescu"},
		},
		Projects: []any{
			obj{
				"title":        "Edge AI",
				"abstract":     "Inference on small devices.",
				"lead":         "Ana Ionescu",
				"team":         []any{"Ion Pop", obj{"slug": "maria-dan"}, "Ion Pop"},
				"domains":      []any{"Artificial Intelligence Lab"},
				"publications": []any{"Learning at the Edge", "Unpublished Work"},
				"themes":       []any{"Robotics"},
				"partners":     []any{"ACME Corp"},
			},
			obj{"title": "Quantum Edge", "lead": "Ghost Person", "themes": []any{"robotics ", "Quantum"}, "partners": "ACME corp"},
		},
		Events:   []any{obj{"title": "Open Day", "date": "2024-05-01"}},
		Seminars: []any{obj{"title": "Graph Neural Networks", "speaker": "Ion Pop"}},
	}
}

func runDataset(t *testing.T, repo storage.Repository, root string) (*Summary, *observer.ObservedLogs, error) {
	t.Helper()
	return runWith(context.Background(), newObservedRunner(repo, nil), root)
}

type testRunner struct {
	*Runner
	logs *observer.ObservedLogs
}

// newObservedRunner erstellt einen Runner, dessen Logs beobachtet werden.
func newObservedRunner(repo storage.Repository, metrics *Metrics) testRunner {
	core, logs := observer.New(zapcore.DebugLevel)
	return testRunner{Runner: NewRunner(repo, metrics, zap.New(core)), logs: logs}
}

func runWith(ctx context.Context, r testRunner, root string) (*Summary, *observer.ObservedLogs, error) {
	summary, err := r.Run(ctx, sources.NewLoader(sources.NewDirReader(root), r.logger))
	return summary, r.logs, err
}

func findBy(t *testing.T, repo *storage.MemoryRepository, kind models.Kind, field, value string) *models.Document {
	t.Helper()
	doc, err := repo.FindOne(context.Background(), kind, storage.Filter{Field: field, Value: value, Fold: true})
	require.NoError(t, err)
	require.NotNil(t, doc, "%s with %s=%q", kind, field, value)
	return doc
}

// flakyRepo ist ein Speicher-Store mit einstellbaren Fehlern.
type flakyRepo struct {
	*storage.MemoryRepository
	failPublish map[models.Kind]bool
	failCreate  func(kind models.Kind, fields models.Fields) error
	failFind    map[models.Kind]bool
	afterCreate func(kind models.Kind)
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{
		MemoryRepository: storage.NewMemoryRepository(),
		failPublish:      map[models.Kind]bool{},
		failFind:         map[models.Kind]bool{},
	}
}

var errBackend = errors.New("backend unavailable")

func (f *flakyRepo) FindOne(ctx context.Context, kind models.Kind, filter storage.Filter) (*models.Document, error) {
	if f.failFind[kind] {
		return nil, errBackend
	}
	return f.MemoryRepository.FindOne(ctx, kind, filter)
}

func (f *flakyRepo) Create(ctx context.Context, kind models.Kind, fields models.Fields) (*models.Document, error) {
	if f.failCreate != nil {
		if err := f.failCreate(kind, fields); err != nil {
			return nil, err
		}
	}
	doc, err := f.MemoryRepository.Create(ctx, kind, fields)
	if err == nil && f.afterCreate != nil {
		f.afterCreate(kind)
	}
	return doc, err
}

func (f *flakyRepo) Publish(ctx context.Context, kind models.Kind, id string) error {
	if f.failPublish[kind] {
		return errBackend
	}
	return f.MemoryRepository.Publish(ctx, kind, id)
}

var allKinds = []models.Kind{
	models.KindDepartment,
	models.KindSupportUnit,
	models.KindPerson,
	models.KindTheme,
	models.KindPartner,
	models.KindPublication,
	models.KindProject,
	models.KindEvent,
	models.KindSeminar,
}

func counts(repo *storage.MemoryRepository) map[models.Kind]int {
	out := map[models.Kind]int{}
	for _, k := range allKinds {
		out[k] = repo.Count(k)
	}
	return out
}
