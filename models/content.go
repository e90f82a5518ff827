package models

import "encoding/json"

// FocusItem ist ein Schwerpunkt bzw. eine Dienstleistung einer Einheit.
type FocusItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ContactLink ist ein Kontakt- oder Social-Link.
type ContactLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Icon  string `json:"icon,omitempty"`
}

// Department repräsentiert eine Forschungs- oder Lehreinheit.
type Department struct {
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Body        string        `json:"body,omitempty"`
	FocusItems  []FocusItem   `json:"focusItems"`
	Contacts    []ContactLink `json:"contacts"`
	Type        string        `json:"type"` // research, academic, support

	Coordinator   string `json:"coordinator,omitempty"`
	CoCoordinator string `json:"coCoordinator,omitempty"`
}

// SupportUnit repräsentiert eine Support-Einheit (Verwaltung, IT, Bibliothek ...).
type SupportUnit struct {
	Name     string        `json:"name"`
	Slug     string        `json:"slug"`
	Summary  string        `json:"summary,omitempty"`
	Mission  string        `json:"mission,omitempty"`
	Body     string        `json:"body,omitempty"`
	Services []FocusItem   `json:"services"`
	Contacts []ContactLink `json:"contacts"`
}

// Person repräsentiert ein Profil.
type Person struct {
	FullName   string     `json:"fullName"`
	Slug       string     `json:"slug"`
	Type       PersonType `json:"type"`
	Titles     string     `json:"titles,omitempty"`
	Position   string     `json:"position,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Email      string     `json:"email,omitempty"`
	Department string     `json:"department,omitempty"`
}

// Theme ist ein Forschungsthema.
type Theme struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Summary string `json:"summary"`
}

// Partner ist eine Partnerorganisation.
type Partner struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Publication repräsentiert eine Veröffentlichung.
type Publication struct {
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Year        *int           `json:"year,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	Description string         `json:"description,omitempty"`
	ExternalURL string         `json:"externalUrl,omitempty"`
	DocumentURL string         `json:"documentUrl,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Domain      string         `json:"domain,omitempty"`
	Authors     []string       `json:"authors,omitempty"`
}

// Project repräsentiert ein Forschungsprojekt.
type Project struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Abstract     string   `json:"abstract,omitempty"`
	Phase        string   `json:"phase,omitempty"`
	Region       string   `json:"region,omitempty"`
	Body         string   `json:"body,omitempty"`
	DocURL       string   `json:"docUrl,omitempty"`
	OfficialURL  string   `json:"officialUrl,omitempty"`
	Lead         string   `json:"lead,omitempty"`
	Members      []string `json:"members,omitempty"`
	Domains      []string `json:"domains,omitempty"`
	Publications []string `json:"publications,omitempty"`
	Themes       []string `json:"themes,omitempty"`
	Partners     []string `json:"partners,omitempty"`
}

// Event ist eine Veranstaltung.
type Event struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Image    string `json:"image,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Seminar ist ein Seminarvortrag.
type Seminar struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Date     string `json:"date,omitempty"`
	Speaker  string `json:"speaker,omitempty"`
	Location string `json:"location,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// ToFields wandelt eine Payload-Struktur in Store-Felder um.
func ToFields(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
