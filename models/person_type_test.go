package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonTypeFromCategory(t *testing.T) {
	cases := map[string]PersonType{
		"Personal":               PersonStaff,
		"Staff":                  PersonStaff,
		"staff":                  PersonStaff,
		"Visiting Researchers":   PersonVisitor,
		"visiting-researchers":   PersonVisitor,
		"Visiting Researcher":    PersonVisitor,
		"Researchers":            PersonResearcher,
		"Alumni":                 PersonAlumni,
		"External Collaborators": PersonExternal,
		"":                       PersonStaff,
		"Something Else":         PersonStaff,
	}
	for in, want := range cases {
		assert.Equal(t, want, PersonTypeFromCategory(in), "category %q", in)
	}
}

func TestToFieldsOmitsEmptyRelations(t *testing.T) {
	fields, err := ToFields(Project{Title: "Edge AI", Slug: "edge-ai"})
	assert.NoError(t, err)
	assert.Equal(t, "Edge AI", fields.String("title"))
	_, hasLead := fields["lead"]
	assert.False(t, hasLead)
}

func TestKindNameField(t *testing.T) {
	assert.Equal(t, "fullName", KindPerson.NameField())
	assert.Equal(t, "title", KindProject.NameField())
	assert.Equal(t, "name", KindTheme.NameField())
	assert.Equal(t, "support-units", KindSupportUnit.Plural())
	assert.Equal(t, "people", KindPerson.Plural())
}
