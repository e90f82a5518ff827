package services

import (
	"institute-seed/models"
	"institute-seed/sources"
)

// DepartmentLeads hält die rohen Koordinator-Namen einer Abteilung, bis die
// Personen importiert sind.
type DepartmentLeads struct {
	Key           string
	Name          string
	Coordinator   sources.Ref
	CoCoordinator sources.Ref
}

type registry struct {
	byKey  map[string]*models.Document
	bySlug map[string]*models.Document
	names  []string
}

func newRegistry() *registry {
	return &registry{
		byKey:  make(map[string]*models.Document),
		bySlug: make(map[string]*models.Document),
	}
}

// State ist das Abgleichsgedächtnis eines Laufs: welche logischen Entitäten
// bereits auf Dokumente im Store abgebildet sind. Nicht nebenläufig nutzbar.
type State struct {
	registries map[models.Kind]*registry
	leads      map[string]DepartmentLeads
	leadOrder  []string
}

// NewState erstellt einen leeren Zustand.
func NewState() *State {
	return &State{
		registries: make(map[models.Kind]*registry),
		leads:      make(map[string]DepartmentLeads),
	}
}

func (s *State) registry(kind models.Kind) *registry {
	r, ok := s.registries[kind]
	if !ok {
		r = newRegistry()
		s.registries[kind] = r
	}
	return r
}

// Register legt ein Dokument unter Schlüssel und Slug ab. Leere Werte werden ignoriert.
func (s *State) Register(kind models.Kind, key, slug string, doc *models.Document) {
	r := s.registry(kind)
	if key != "" {
		if _, seen := r.byKey[key]; !seen {
			r.names = append(r.names, doc.Name())
		}
		r.byKey[key] = doc
	}
	if slug != "" {
		r.bySlug[slug] = doc
	}
}

// ByKey sucht per normalisiertem Schlüssel.
func (s *State) ByKey(kind models.Kind, key string) *models.Document {
	if key == "" {
		return nil
	}
	return s.registry(kind).byKey[key]
}

// BySlug sucht per Slug.
func (s *State) BySlug(kind models.Kind, slug string) *models.Document {
	if slug == "" {
		return nil
	}
	return s.registry(kind).bySlug[slug]
}

// Names gibt die registrierten Namen einer Art zurück.
func (s *State) Names(kind models.Kind) []string {
	return s.registry(kind).names
}

// Count gibt die Anzahl registrierter Schlüssel einer Art zurück.
func (s *State) Count(kind models.Kind) int {
	r := s.registry(kind)
	if len(r.byKey) > 0 {
		return len(r.byKey)
	}
	return len(r.bySlug)
}

// SetLeads merkt sich die Koordinatoren einer Abteilung.
func (s *State) SetLeads(leads DepartmentLeads) {
	if _, seen := s.leads[leads.Key]; !seen {
		s.leadOrder = append(s.leadOrder, leads.Key)
	}
	s.leads[leads.Key] = leads
}

// Leads gibt die gemerkten Koordinatoren in Importreihenfolge zurück.
func (s *State) Leads() []DepartmentLeads {
	out := make([]DepartmentLeads, 0, len(s.leadOrder))
	for _, k := range s.leadOrder {
		out = append(out, s.leads[k])
	}
	return out
}
