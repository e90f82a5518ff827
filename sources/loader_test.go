package sources

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"institute-seed/models"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newTestLoader(t *testing.T, root string) (*Loader, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return NewLoader(NewDirReader(root), zap.New(core)), logs
}

func TestLoadRequiredMissingIsFatal(t *testing.T) {
	loader, _ := newTestLoader(t, t.TempDir())

	_, err := loader.LoadRequired(context.Background(), models.KindDepartment)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, models.KindDepartment, loadErr.Kind)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "researchUnitsData.json")
}

func TestLoadOptionalMissingWarns(t *testing.T) {
	loader, logs := newTestLoader(t, t.TempDir())

	records, err := loader.LoadOptional(context.Background(), models.KindSupportUnit)
	require.NoError(t, err)
	assert.Empty(t, records)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("Optional source file missing, skipping")
	assert.Equal(t, 1, warnings.Len())
}

func TestLoadParseFailureIsFatalEvenWhenOptional(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "news&events/eventsData.json", `[{"title": "broken"`)
	loader, _ := newTestLoader(t, root)

	_, err := loader.LoadOptional(context.Background(), models.KindEvent)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, models.KindEvent, loadErr.Kind)
}

func TestLoadWrongShapeYieldsNoRecords(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "staff/pubData.json", `{"title": "not an array"}`)
	writeFile(t, root, "staff/staffData.json", `[{"name": "Ana"}]`)
	loader, logs := newTestLoader(t, root)

	pubs, err := loader.LoadRequired(context.Background(), models.KindPublication)
	require.NoError(t, err)
	assert.Empty(t, pubs)

	people, err := loader.LoadRequired(context.Background(), models.KindPerson)
	require.NoError(t, err)
	assert.Empty(t, people)

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestLoadPeopleFlattensCategoriesInOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "staff/staffData.json", `{
		"Researchers": [{"name": "Ion Pop"}, {"name": "Maria Dan"}],
		"Visiting Researchers": [{"name": "Ana Ionescu"}],
		"Broken": "nope"
	}`)
	loader, _ := newTestLoader(t, root)

	people, err := loader.LoadRequired(context.Background(), models.KindPerson)
	require.NoError(t, err)
	require.Len(t, people, 3)
	assert.Equal(t, "Ion Pop", people[0].Str("name"))
	assert.Equal(t, "Researchers", people[0].Category)
	assert.Equal(t, "Ana Ionescu", people[2].Str("name"))
	assert.Equal(t, "Visiting Researchers", people[2].Category)
}

func TestLoadArraySkipsNonObjects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "staff/proData.json", `[{"title": "Edge AI"}, "stray", 42, {"title": "Second"}]`)
	loader, _ := newTestLoader(t, root)

	projects, err := loader.LoadRequired(context.Background(), models.KindProject)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Second", projects[1].Str("title"))
}
