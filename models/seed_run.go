package models

import "time"

// SeedRun protokolliert einen Lauf des Seed-Tools.
type SeedRun struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	StartedAt  time.Time  `json:"started_at" gorm:"index"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DataRoot   string     `json:"data_root"`
	Backend    string     `json:"backend"`

	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Skipped       int `json:"skipped"`
	PublishedOnly int `json:"published_only"`
	Failed        int `json:"failed"`
	PublishFailed int `json:"publish_failed"`

	// Status: running, done, skipped, canceled, failed
	Status string `json:"status" gorm:"index;default:'running'"`
	Error  string `json:"error,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (SeedRun) TableName() string {
	return "seed_runs"
}
