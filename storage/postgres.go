package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"institute-seed/models"
	"institute-seed/normalize"
)

// OpenPostgres öffnet eine gorm-Verbindung ohne SQL-Logging.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// PostgresRepository legt Dokumente als JSONB-Zeilen in der Tabelle documents ab.
type PostgresRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostgresRepository erstellt das Postgres-Backend.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Migrate legt die Tabellen für Dokumente und Laufprotokoll an.
func (p *PostgresRepository) Migrate() error {
	return p.db.AutoMigrate(&models.DocumentRecord{}, &models.SeedRun{})
}

func (p *PostgresRepository) FindOne(ctx context.Context, kind models.Kind, filter Filter) (*models.Document, error) {
	if filter.empty() {
		return nil, nil
	}
	query := p.db.WithContext(ctx).Where("kind = ?", string(kind))
	switch {
	case filter.Field == "slug" && filter.Fold:
		query = query.Where("lower(slug) = lower(?)", filter.Value)
	case filter.Field == "slug":
		query = query.Where("slug = ?", filter.Value)
	case filter.Field == kind.NameField() && filter.Fold:
		query = query.Where("name_key = ?", normalize.Key(filter.Value))
	case filter.Field == kind.NameField():
		query = query.Where("name = ?", filter.Value)
	case filter.Fold:
		query = query.Where("lower(data->>?) = lower(?)", filter.Field, filter.Value)
	default:
		query = query.Where("data->>? = ?", filter.Field, filter.Value)
	}

	var rec models.DocumentRecord
	if err := query.Order("id").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s by %s: %w", kind, filter.Field, err)
	}
	return recordToDocument(&rec)
}

func (p *PostgresRepository) Create(ctx context.Context, kind models.Kind, fields models.Fields) (*models.Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	name := fields.String(kind.NameField())
	rec := models.DocumentRecord{
		Kind:       string(kind),
		DocumentID: uuid.NewString(),
		Slug:       fields.String("slug"),
		Name:       name,
		NameKey:    normalize.Key(name),
		Data:       data,
	}
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return recordToDocument(&rec)
}

func (p *PostgresRepository) Update(ctx context.Context, kind models.Kind, id string, fields models.Fields) (*models.Document, error) {
	var rec models.DocumentRecord
	err := p.db.WithContext(ctx).Where("kind = ? AND document_id = ?", string(kind), id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("update %s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", kind, id, err)
	}

	merged := models.Fields{}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &merged); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", kind, id, err)
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	rec.Data = data
	rec.Slug = merged.String("slug")
	rec.Name = merged.String(kind.NameField())
	rec.NameKey = normalize.Key(rec.Name)
	if err := p.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return nil, fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	return recordToDocument(&rec)
}

func (p *PostgresRepository) Publish(ctx context.Context, kind models.Kind, id string) error {
	res := p.db.WithContext(ctx).Model(&models.DocumentRecord{}).
		Where("kind = ? AND document_id = ?", string(kind), id).
		Update("published_at", p.now())
	if res.Error != nil {
		return fmt.Errorf("publish %s %s: %w", kind, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("publish %s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Snapshot gibt alle Dokumente sortiert nach Art und ID zurück.
func (p *PostgresRepository) Snapshot(ctx context.Context) ([]models.DocumentRecord, error) {
	var recs []models.DocumentRecord
	if err := p.db.WithContext(ctx).Order("kind, id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func recordToDocument(rec *models.DocumentRecord) (*models.Document, error) {
	fields := models.Fields{}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", rec.DocumentID, err)
		}
	}
	return &models.Document{
		ID:          rec.DocumentID,
		Kind:        models.Kind(rec.Kind),
		Fields:      fields,
		PublishedAt: rec.PublishedAt,
	}, nil
}
