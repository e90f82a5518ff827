package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"institute-seed/models"
)

// LoadError ist ein fataler Ladefehler: Pflichtdatei fehlt oder ist kein gültiges JSON.
type LoadError struct {
	Kind models.Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s data from %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader lädt die Datensätze je Entitätsart.
type Loader struct {
	reader Reader
	logger *zap.Logger
}

// NewLoader erstellt einen Loader über einem Reader.
func NewLoader(reader Reader, logger *zap.Logger) *Loader {
	return &Loader{reader: reader, logger: logger}
}

// Root gibt die verwendete Datenwurzel zurück.
func (l *Loader) Root() string {
	return l.reader.Root()
}

// LoadRequired lädt eine Pflichtquelle; eine fehlende Datei ist fatal.
func (l *Loader) LoadRequired(ctx context.Context, kind models.Kind) ([]Record, error) {
	return l.load(ctx, kind, true)
}

// LoadOptional lädt eine optionale Quelle; fehlt die Datei, gibt es eine
// Warnung und keine Datensätze.
func (l *Loader) LoadOptional(ctx context.Context, kind models.Kind) ([]Record, error) {
	return l.load(ctx, kind, false)
}

func (l *Loader) load(ctx context.Context, kind models.Kind, required bool) ([]Record, error) {
	file, ok := Files[kind]
	if !ok {
		return nil, fmt.Errorf("no source file registered for kind %q", kind)
	}
	log := l.logger.With(zap.String("kind", string(kind)), zap.String("file", file.Path))

	data, err := l.reader.ReadFile(ctx, file.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			log.Warn("Optional source file missing, skipping", zap.String("root", l.reader.Root()))
			return nil, nil
		}
		return nil, &LoadError{Kind: kind, Path: l.reader.Root() + "/" + file.Path, Err: err}
	}
	if !gjson.ValidBytes(data) {
		return nil, &LoadError{Kind: kind, Path: l.reader.Root() + "/" + file.Path, Err: errors.New("invalid JSON")}
	}

	root := gjson.ParseBytes(data)
	var records []Record
	switch file.Shape {
	case ShapeCategories:
		if !root.IsObject() {
			log.Warn("Unexpected top-level structure, expected object of category arrays")
			return nil, nil
		}
		root.ForEach(func(category, list gjson.Result) bool {
			if !list.IsArray() {
				log.Warn("Category is not an array, ignoring", zap.String("category", category.String()))
				return true
			}
			for _, item := range list.Array() {
				if item.IsObject() {
					records = append(records, Record{Category: category.String(), Index: len(records), value: item})
				}
			}
			return true
		})
	default:
		if !root.IsArray() {
			log.Warn("Unexpected top-level structure, expected array")
			return nil, nil
		}
		for _, item := range root.Array() {
			if item.IsObject() {
				records = append(records, Record{Index: len(records), value: item})
			}
		}
	}

	log.Info("Source loaded", zap.Int("records", len(records)))
	return records, nil
}
