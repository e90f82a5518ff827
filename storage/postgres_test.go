package storage

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"institute-seed/models"
)

var documentColumns = []string{"id", "created_at", "updated_at", "kind", "document_id", "slug", "name", "name_key", "data", "published_at"}

func newMockPostgres(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})

	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return repo, mock
}

func personRow(data string) *sqlmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(documentColumns).
		AddRow(1, now, now, "person", "doc-1", "ana-ionescu", "Ana Ionescu", "anaionescu", []byte(data), nil)
}

// jsonArg vergleicht ein JSONB-Argument inhaltlich statt byteweise.
type jsonArg map[string]any

func (j jsonArg) Match(v driver.Value) bool {
	raw, ok := v.([]byte)
	if !ok {
		return false
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}
	return assert.ObjectsAreEqual(map[string]any(j), got)
}

func TestPostgresFindOneQueries(t *testing.T) {
	tests := []struct {
		name   string
		kind   models.Kind
		filter Filter
		where  string
		args   []driver.Value
	}{
		{
			name:   "slug exact",
			kind:   models.KindProject,
			filter: Filter{Field: "slug", Value: "edge-ai"},
			where:  `WHERE kind = $1 AND slug = $2`,
			args:   []driver.Value{"project", "edge-ai", 1},
		},
		{
			name:   "slug case-insensitive",
			kind:   models.KindPerson,
			filter: Filter{Field: "slug", Value: "Ana-Ionescu", Fold: true},
			where:  `WHERE kind = $1 AND lower(slug) = lower($2)`,
			args:   []driver.Value{"person", "Ana-Ionescu", 1},
		},
		{
			name:   "name folded to key",
			kind:   models.KindDepartment,
			filter: Filter{Field: "name", Value: "Științe Aplicate", Fold: true},
			where:  `WHERE kind = $1 AND name_key = $2`,
			args:   []driver.Value{"department", "stiinteaplicate", 1},
		},
		{
			name:   "name exact",
			kind:   models.KindDepartment,
			filter: Filter{Field: "name", Value: "AI Lab"},
			where:  `WHERE kind = $1 AND name = $2`,
			args:   []driver.Value{"department", "AI Lab", 1},
		},
		{
			name:   "json field folded",
			kind:   models.KindPerson,
			filter: Filter{Field: "email", Value: "Ana@Example.org", Fold: true},
			where:  `WHERE kind = $1 AND lower(data->>$2) = lower($3)`,
			args:   []driver.Value{"person", "email", "Ana@Example.org", 1},
		},
		{
			name:   "json field exact",
			kind:   models.KindPerson,
			filter: Filter{Field: "email", Value: "ana@example.org"},
			where:  `WHERE kind = $1 AND data->>$2 = $3`,
			args:   []driver.Value{"person", "email", "ana@example.org", 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockPostgres(t)
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "documents" ` + tt.where)).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows(documentColumns))

			doc, err := repo.FindOne(context.Background(), tt.kind, tt.filter)
			require.NoError(t, err)
			assert.Nil(t, doc)
		})
	}
}

func TestPostgresFindOneDecodesRow(t *testing.T) {
	repo, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE kind = $1 AND lower(slug) = lower($2)`)).
		WithArgs("person", "ana-ionescu", 1).
		WillReturnRows(personRow(`{"fullName":"Ana Ionescu","slug":"ana-ionescu"}`))

	doc, err := repo.FindOne(context.Background(), models.KindPerson, Filter{Field: "slug", Value: "ana-ionescu", Fold: true})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, models.KindPerson, doc.Kind)
	assert.Equal(t, "ana-ionescu", doc.Slug())
	assert.False(t, doc.Published())
}

func TestPostgresFindOneEmptyFilterSkipsQuery(t *testing.T) {
	repo, _ := newMockPostgres(t)
	for _, f := range []Filter{
		{Field: "slug", Value: ""},
		{Field: "slug", Value: "   "},
		{Field: "name", Value: "!!!", Fold: true},
	} {
		doc, err := repo.FindOne(context.Background(), models.KindPerson, f)
		require.NoError(t, err)
		assert.Nil(t, doc)
	}
}

func TestPostgresFindOneWrapsErrors(t *testing.T) {
	repo, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "documents"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindOne(context.Background(), models.KindPerson, Filter{Field: "slug", Value: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find person by slug")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newMockPostgres(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "documents"`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "person", sqlmock.AnyArg(), "ana-ionescu", "Ana Ionescu", "anaionescu",
			jsonArg{"fullName": "Ana Ionescu", "slug": "ana-ionescu"}, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	doc, err := repo.Create(context.Background(), models.KindPerson, models.Fields{"fullName": "Ana Ionescu", "slug": "ana-ionescu"})
	require.NoError(t, err)
	assert.Len(t, doc.ID, 36)
	assert.Equal(t, "Ana Ionescu", doc.Name())
}

func TestPostgresUpdateMergesFields(t *testing.T) {
	repo, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "documents" WHERE kind = $1 AND document_id = $2`)).
		WithArgs("person", "doc-1", 1).
		WillReturnRows(personRow(`{"fullName":"Ana Ionescu","slug":"ana-ionescu","position":"Curated"}`))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "documents" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "person", "doc-1", "ana-ionescu", "Ana Ionescu", "anaionescu",
			jsonArg{"fullName": "Ana Ionescu", "slug": "ana-ionescu", "position": "Curated", "email": "ana@example.org"},
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := repo.Update(context.Background(), models.KindPerson, "doc-1", models.Fields{"email": "ana@example.org"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "Curated", doc.Fields.String("position"))
	assert.Equal(t, "ana@example.org", doc.Fields.String("email"))
}

func TestPostgresUpdateUnknownID(t *testing.T) {
	repo, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE kind = $1 AND document_id = $2`)).
		WithArgs("event", "missing", 1).
		WillReturnRows(sqlmock.NewRows(documentColumns))

	_, err := repo.Update(context.Background(), models.KindEvent, "missing", models.Fields{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresPublish(t *testing.T) {
	repo, mock := newMockPostgres(t)
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "documents" SET "published_at"=$1`)).
		WithArgs(published, sqlmock.AnyArg(), "event", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Publish(context.Background(), models.KindEvent, "doc-1"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "documents" SET "published_at"=$1`)).
		WithArgs(published, sqlmock.AnyArg(), "event", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.Publish(context.Background(), models.KindEvent, "missing"), ErrNotFound)
}
