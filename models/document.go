package models

import (
	"time"
)

// Kind bezeichnet einen Inhaltstyp im Content-Store.
type Kind string

const (
	KindDepartment  Kind = "department"
	KindSupportUnit Kind = "support-unit"
	KindPerson      Kind = "person"
	KindTheme       Kind = "theme"
	KindPartner     Kind = "partner"
	KindPublication Kind = "publication"
	KindProject     Kind = "project"
	KindEvent       Kind = "event"
	KindSeminar     Kind = "seminar"
)

var plurals = map[Kind]string{
	KindDepartment:  "departments",
	KindSupportUnit: "support-units",
	KindPerson:      "people",
	KindTheme:       "themes",
	KindPartner:     "partners",
	KindPublication: "publications",
	KindProject:     "projects",
	KindEvent:       "events",
	KindSeminar:     "seminars",
}

// Plural gibt den Pfadnamen der Collection in der REST-API zurück.
func (k Kind) Plural() string {
	if p, ok := plurals[k]; ok {
		return p
	}
	return string(k) + "s"
}

// NameField ist das Feld, das den menschenlesbaren Namen eines Dokuments trägt.
func (k Kind) NameField() string {
	switch k {
	case KindPerson:
		return "fullName"
	case KindPublication, KindProject, KindEvent, KindSeminar:
		return "title"
	default:
		return "name"
	}
}

// Fields ist der Inhalt eines Dokuments, so wie er an den Store geht.
type Fields map[string]any

// String liefert ein Feld als String, leer wenn es fehlt oder kein String ist.
func (f Fields) String(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

// Clone erstellt eine flache Kopie.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Document ist ein Dokument mit vom Store vergebener Identität.
type Document struct {
	ID          string     `json:"documentId"`
	Kind        Kind       `json:"kind"`
	Fields      Fields     `json:"fields"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Slug gibt den Slug des Dokuments zurück.
func (d *Document) Slug() string {
	return d.Fields.String("slug")
}

// Name gibt den Namen bzw. Titel des Dokuments zurück.
func (d *Document) Name() string {
	return d.Fields.String(d.Kind.NameField())
}

// Published meldet, ob das Dokument veröffentlicht ist.
func (d *Document) Published() bool {
	return d.PublishedAt != nil
}

// DocumentRecord ist die Tabellenzeile des Postgres-Backends.
type DocumentRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind       string `json:"kind" gorm:"index:idx_documents_kind_slug,unique;size:64;not null"`
	DocumentID string `json:"document_id" gorm:"column:document_id;uniqueIndex;size:36;not null"`
	Slug       string `json:"slug" gorm:"index:idx_documents_kind_slug,unique;size:255;default:''"`
	Name       string `json:"name"`
	// Normalisierter Namensschlüssel für Vergleiche ohne Groß-/Kleinschreibung und Diakritika
	NameKey string `json:"name_key" gorm:"index;size:255"`

	Data        []byte     `json:"data" gorm:"type:jsonb"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (DocumentRecord) TableName() string {
	return "documents"
}
