package sources

import "institute-seed/models"

// Shape beschreibt die erwartete Top-Level-Struktur einer Datei.
type Shape int

const (
	// ShapeArray: ein Array von Datensätzen.
	ShapeArray Shape = iota
	// ShapeCategories: ein Objekt Kategorie -> Array von Datensätzen.
	ShapeCategories
)

// File beschreibt eine Quelldatei einer Entitätsart.
type File struct {
	Kind     models.Kind
	Path     string
	Required bool
	Shape    Shape
}

// Files ist die feste Zuordnung Entitätsart -> Quelldatei.
var Files = map[models.Kind]File{
	models.KindDepartment:  {Kind: models.KindDepartment, Path: "departments/researchUnitsData.json", Required: true},
	models.KindSupportUnit: {Kind: models.KindSupportUnit, Path: "departments/supportUnitsData.json"},
	models.KindPerson:      {Kind: models.KindPerson, Path: "staff/staffData.json", Required: true, Shape: ShapeCategories},
	models.KindPublication: {Kind: models.KindPublication, Path: "staff/pubData.json", Required: true},
	models.KindProject:     {Kind: models.KindProject, Path: "staff/proData.json", Required: true},
	models.KindEvent:       {Kind: models.KindEvent, Path: "news&events/eventsData.json"},
	models.KindSeminar:     {Kind: models.KindSeminar, Path: "news&events/seminarsData.json"},
}

// CandidateRoots sind die relativen Pfade, unter denen ohne Override nach den Daten gesucht wird.
var CandidateRoots = []string{
	"data",
	"../data",
	"src/data",
	"../src/data",
	"frontend/src/data",
	"../frontend/src/data",
}
