package storage

import (
	"context"

	"gorm.io/gorm"

	"institute-seed/models"
)

// RunLedger protokolliert Seed-Läufe in der Tabelle seed_runs.
type RunLedger struct {
	db *gorm.DB
}

// NewRunLedger erstellt ein Laufprotokoll über einer gorm-Verbindung.
func NewRunLedger(db *gorm.DB) *RunLedger {
	return &RunLedger{db: db}
}

// Migrate legt die Tabelle seed_runs an.
func (l *RunLedger) Migrate() error {
	return l.db.AutoMigrate(&models.SeedRun{})
}

// Start legt einen laufenden Eintrag an.
func (l *RunLedger) Start(ctx context.Context, run *models.SeedRun) error {
	run.Status = "running"
	return l.db.WithContext(ctx).Create(run).Error
}

// Finish schreibt Ergebnis und Status eines Laufs.
func (l *RunLedger) Finish(ctx context.Context, run *models.SeedRun) error {
	return l.db.WithContext(ctx).Save(run).Error
}

// Recent gibt die letzten n Läufe zurück, neueste zuerst.
func (l *RunLedger) Recent(ctx context.Context, n int) ([]models.SeedRun, error) {
	var runs []models.SeedRun
	err := l.db.WithContext(ctx).Order("started_at desc").Limit(n).Find(&runs).Error
	return runs, err
}
