package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/hhdata/vacancy-ingest/internal/config"
	"github.com/hhdata/vacancy-ingest/internal/ingest"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store, err := NewWithDB(mock)
	require.NoError(t, err)
	return store, mock
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.DBConfig{})
	require.Error(t, err)
}

func TestNewWithDBRequiresDB(t *testing.T) {
	t.Parallel()

	_, err := NewWithDB(nil)
	require.Error(t, err)
}

func TestUpsertAreasBatchesInOneTransaction(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	russiaID := int64(113)
	areas := []ingest.AreaRow{
		{ID: 113, Name: "Россия", ParentID: nil, TimeZone: strPtr("Europe/Moscow")},
		{ID: 1, Name: "Москва", ParentID: &russiaID, TimeZone: strPtr("Europe/Moscow")},
	}

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec("INSERT INTO areas").
		WithArgs(int64(113), "Россия", (*int64)(nil), strPtr("Europe/Moscow")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec("INSERT INTO areas").
		WithArgs(int64(1), "Москва", &russiaID, strPtr("Europe/Moscow")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.UpsertAreas(context.Background(), areas))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAreasEmptySkipsDatabase(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	require.NoError(t, store.UpsertAreas(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAreasRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec("INSERT INTO areas").
		WithArgs(int64(113), "Россия", (*int64)(nil), (*string)(nil)).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := store.UpsertAreas(context.Background(), []ingest.AreaRow{{ID: 113, Name: "Россия"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRoleCatalogQueuesCategoriesFirst(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	categories := []ingest.RoleCategoryRow{{ID: 11, Name: "IT"}}
	roles := []ingest.RoleRow{{ID: 96, Name: "Разработчик", CategoryID: 11}}

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec("INSERT INTO professional_role_categories").
		WithArgs(int64(11), "IT").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec("INSERT INTO professional_roles").
		WithArgs(int64(96), "Разработчик", int64(11), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.UpsertRoleCatalog(context.Background(), categories, roles))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEmployerOverwritesPriorRow(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	employer := ingest.EmployerRow{
		ID:        1740,
		Name:      "Яндекс",
		Trusted:   true,
		UpdatedAt: now,
	}

	// Same id twice: the second observation replaces the first, so both
	// calls issue the identical upsert and neither fails.
	for i := 0; i < 2; i++ {
		mock.ExpectExec("INSERT INTO employers").
			WithArgs(int64(1740), "Яндекс",
				(*string)(nil), (*string)(nil), (*string)(nil),
				(*string)(nil), (*string)(nil), (*string)(nil),
				(*int64)(nil), true, false, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, store.UpsertEmployer(context.Background(), employer))
	require.NoError(t, store.UpsertEmployer(context.Background(), employer))
	require.NoError(t, mock.ExpectationsWereMet())
}

func testVacancyRow() ingest.VacancyRow {
	parsedAt := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	return ingest.VacancyRow{
		SourceID:    123456,
		Name:        "Go developer",
		PublishedAt: parsedAt.Add(-48 * time.Hour),
		CreatedAt:   parsedAt.Add(-72 * time.Hour),
		ParsedAt:    parsedAt,
		RunID:       uuid.MustParse("11111111-2222-3333-4444-555555555555"),
	}
}

func TestInsertVacancyAppendsSnapshotAndRoles(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	row := testVacancyRow()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vacancies").
		WithArgs(vacancyArgs(row)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO vacancy_professional_roles").
		WithArgs(row.SourceID, row.PublishedAt, row.CreatedAt, row.ParsedAt, int64(96)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO vacancy_professional_roles").
		WithArgs(row.SourceID, row.PublishedAt, row.CreatedAt, row.ParsedAt, int64(104)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.InsertVacancy(context.Background(), row, []int64{96, 104}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertVacancyDuplicateSnapshotIsNoOp(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	row := testVacancyRow()

	// Conflict on the natural key inserts nothing and raises nothing.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vacancies").
		WithArgs(vacancyArgs(row)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec("INSERT INTO vacancy_professional_roles").
		WithArgs(row.SourceID, row.PublishedAt, row.CreatedAt, row.ParsedAt, int64(96)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	require.NoError(t, store.InsertVacancy(context.Background(), row, []int64{96}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertVacancyRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	row := testVacancyRow()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vacancies").
		WithArgs(vacancyArgs(row)...).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.InsertVacancy(context.Background(), row, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchemaAppliesDDL(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS areas").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.InitSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
