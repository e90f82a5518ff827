package sources

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Record ist ein roher JSON-Datensatz aus den Altdaten.
type Record struct {
	// Category ist nur bei Personen gesetzt (Schlüssel im Kategorie-Objekt).
	Category string
	Index    int

	value gjson.Result
}

// Ref ist ein Verweis per Name und/oder Slug.
type Ref struct {
	Name string
	Slug string
}

// Empty meldet, ob der Verweis weder Name noch Slug trägt.
func (r Ref) Empty() bool {
	return r.Name == "" && r.Slug == ""
}

// Label gibt den Namen zurück, ersatzweise den Slug.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Slug
}

// NewRecord erstellt einen Datensatz aus rohem JSON (für Tests und Aufrufer ohne Loader).
func NewRecord(raw string) Record {
	return Record{value: gjson.Parse(raw)}
}

func (r Record) get(key string) gjson.Result {
	return r.value.Get(gjson.Escape(key))
}

// Has meldet, ob das Feld vorhanden ist.
func (r Record) Has(key string) bool {
	return r.get(key).Exists()
}

// Str liefert den ersten nicht-leeren skalaren Wert der angegebenen Felder, getrimmt.
func (r Record) Str(keys ...string) string {
	for _, k := range keys {
		v := r.get(k)
		switch v.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// Paragraphs liefert die nicht-leeren Absätze des ersten vorhandenen Feldes.
// Ein String ergibt einen Absatz, ein Array von Strings mehrere.
func (r Record) Paragraphs(keys ...string) []string {
	for _, k := range keys {
		v := r.get(k)
		var out []string
		switch {
		case v.Type == gjson.String:
			if s := strings.TrimSpace(v.String()); s != "" {
				out = append(out, s)
			}
		case v.IsArray():
			for _, item := range v.Array() {
				if item.Type != gjson.String {
					continue
				}
				if s := strings.TrimSpace(item.String()); s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Text verbindet die Absätze der Felder mit Leerzeilen.
func (r Record) Text(keys ...string) string {
	return strings.Join(r.Paragraphs(keys...), "\n\n")
}

// Strings liefert eine Liste von Strings. Ein einzelner String wird an ',' und ';' getrennt.
func (r Record) Strings(keys ...string) []string {
	var out []string
	for _, ref := range r.Refs(keys...) {
		if ref.Name != "" {
			out = append(out, ref.Name)
		}
	}
	return out
}

// Ref liefert den ersten nicht-leeren Einzelverweis der Felder.
func (r Record) Ref(keys ...string) Ref {
	for _, k := range keys {
		if ref := refOf(r.get(k)); !ref.Empty() {
			return ref
		}
	}
	return Ref{}
}

// Refs liefert die Verweise des ersten vorhandenen Feldes. Elemente dürfen
// Strings oder Objekte mit name/slug sein.
func (r Record) Refs(keys ...string) []Ref {
	for _, k := range keys {
		v := r.get(k)
		var out []Ref
		switch {
		case v.Type == gjson.String:
			for _, part := range strings.FieldsFunc(v.String(), func(c rune) bool { return c == ',' || c == ';' }) {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, Ref{Name: p})
				}
			}
		case v.IsArray():
			for _, item := range v.Array() {
				if ref := refOf(item); !ref.Empty() {
					out = append(out, ref)
				}
			}
		case v.IsObject():
			if ref := refOf(v); !ref.Empty() {
				out = append(out, ref)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func refOf(v gjson.Result) Ref {
	switch {
	case v.Type == gjson.String:
		return Ref{Name: strings.TrimSpace(v.String())}
	case v.IsObject():
		rec := Record{value: v}
		return Ref{Name: rec.Str("name", "fullName", "title"), Slug: rec.Str("slug")}
	}
	return Ref{}
}

// Objects liefert die Objekt-Elemente eines Array-Feldes.
func (r Record) Objects(keys ...string) []Record {
	for _, k := range keys {
		v := r.get(k)
		if !v.IsArray() {
			continue
		}
		var out []Record
		for i, item := range v.Array() {
			if item.IsObject() {
				out = append(out, Record{Index: i, value: item})
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Int liefert eine Ganzzahl. Nicht-endliche oder nicht parsebare Werte gelten als fehlend.
func (r Record) Int(key string) (int, bool) {
	v := r.get(key)
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// Map liefert ein Objekt-Feld als Map, nil wenn es kein Objekt ist.
func (r Record) Map(key string) map[string]any {
	v := r.get(key)
	if !v.IsObject() {
		return nil
	}
	m, ok := v.Value().(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	return m
}
