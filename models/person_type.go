package models

import "institute-seed/normalize"

// PersonType ist die Profilkategorie einer Person.
type PersonType string

const (
	PersonStaff      PersonType = "staff"
	PersonResearcher PersonType = "researcher"
	PersonAlumni     PersonType = "alumni"
	PersonVisitor    PersonType = "visitor"
	PersonExternal   PersonType = "external"
)

// personCategories bildet die Schreibweisen der Altdaten (als normalisierter Schlüssel) auf Typen ab.
var personCategories = map[string]PersonType{
	"personal":              PersonStaff,
	"staff":                 PersonStaff,
	"administrativestaff":   PersonStaff,
	"technicalstaff":        PersonStaff,
	"researchers":           PersonResearcher,
	"researcher":            PersonResearcher,
	"researchstaff":         PersonResearcher,
	"cercetatori":           PersonResearcher,
	"phdstudents":           PersonResearcher,
	"alumni":                PersonAlumni,
	"formermembers":         PersonAlumni,
	"formerstaff":           PersonAlumni,
	"visitingresearchers":   PersonVisitor,
	"visitingresearcher":    PersonVisitor,
	"visitingresearch":      PersonVisitor,
	"visitors":              PersonVisitor,
	"visitor":               PersonVisitor,
	"guestresearchers":      PersonVisitor,
	"external":              PersonExternal,
	"externalcollaborators": PersonExternal,
	"externalmembers":       PersonExternal,
	"associates":            PersonExternal,
	"associatedresearchers": PersonExternal,
}

// PersonTypeFromCategory übersetzt eine Kategorie der Altdaten. Unbekannte
// oder fehlende Kategorien ergeben PersonStaff.
func PersonTypeFromCategory(category string) PersonType {
	if t, ok := personCategories[normalize.Key(category)]; ok {
		return t
	}
	return PersonStaff
}
