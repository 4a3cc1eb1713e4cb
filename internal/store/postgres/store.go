// Package postgres provides the Postgres-backed persistence layer.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hhdata/vacancy-ingest/internal/config"
	"github.com/hhdata/vacancy-ingest/internal/ingest"
)

// DB is the slice of pgxpool.Pool the store needs. pgxmock satisfies it too,
// so tests can run without a database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Store implements ingest.Store on Postgres. Dimension tables are refreshed
// with upserts; vacancy snapshots are append-only and deduplicated on their
// natural key.
type Store struct {
	db DB
}

// New connects a pooled Postgres store and verifies the connection.
func New(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if lifetime := cfg.MaxConnLifetime(); lifetime > 0 {
		poolCfg.MaxConnLifetime = lifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: pool}, nil
}

// NewWithDB constructs a store from an existing connection (primarily for testing).
func NewWithDB(db DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Store{db: db}, nil
}

// Ping verifies the database connection, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.db.Close()
}

const upsertAreaSQL = `
INSERT INTO areas (id, name, parent_id, timezone)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    parent_id = EXCLUDED.parent_id,
    timezone = EXCLUDED.timezone`

// UpsertAreas refreshes the area dimension in one transaction. Rows arrive
// parent-before-child, so the self-referencing foreign key holds within the
// batch.
func (s *Store) UpsertAreas(ctx context.Context, areas []ingest.AreaRow) error {
	if len(areas) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin areas tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, area := range areas {
		batch.Queue(upsertAreaSQL, area.ID, area.Name, area.ParentID, area.TimeZone)
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("upsert areas: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit areas tx: %w", err)
	}
	return nil
}

const upsertRoleCategorySQL = `
INSERT INTO professional_role_categories (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name`

const upsertRoleSQL = `
INSERT INTO professional_roles (id, name, category_id, accept_incomplete_resumes)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    category_id = EXCLUDED.category_id,
    accept_incomplete_resumes = EXCLUDED.accept_incomplete_resumes`

// UpsertRoleCatalog refreshes the professional-role dimension in one
// transaction. Categories are queued ahead of roles so the category foreign
// key holds within the batch.
func (s *Store) UpsertRoleCatalog(ctx context.Context, categories []ingest.RoleCategoryRow, roles []ingest.RoleRow) error {
	if len(categories) == 0 && len(roles) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin role catalog tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, category := range categories {
		batch.Queue(upsertRoleCategorySQL, category.ID, category.Name)
	}
	for _, role := range roles {
		batch.Queue(upsertRoleSQL, role.ID, role.Name, role.CategoryID, role.AcceptIncompleteResumes)
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("upsert role catalog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit role catalog tx: %w", err)
	}
	return nil
}

const upsertEmployerSQL = `
INSERT INTO employers (
	id, name, url, alternate_url, vacancies_url,
	logo_original, logo_90, logo_240,
	country_id, trusted, accredited_it_employer, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    url = EXCLUDED.url,
    alternate_url = EXCLUDED.alternate_url,
    vacancies_url = EXCLUDED.vacancies_url,
    logo_original = EXCLUDED.logo_original,
    logo_90 = EXCLUDED.logo_90,
    logo_240 = EXCLUDED.logo_240,
    country_id = EXCLUDED.country_id,
    trusted = EXCLUDED.trusted,
    accredited_it_employer = EXCLUDED.accredited_it_employer,
    updated_at = EXCLUDED.updated_at`

// UpsertEmployer writes one employer dimension row. The latest observation
// wins unconditionally.
func (s *Store) UpsertEmployer(ctx context.Context, employer ingest.EmployerRow) error {
	_, err := s.db.Exec(ctx, upsertEmployerSQL,
		employer.ID,
		employer.Name,
		employer.URL,
		employer.AlternateURL,
		employer.VacanciesURL,
		employer.LogoOriginal,
		employer.Logo90,
		employer.Logo240,
		employer.CountryID,
		employer.Trusted,
		employer.AccreditedITEmployer,
		employer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert employer %d: %w", employer.ID, err)
	}
	return nil
}

const insertVacancySQL = `
INSERT INTO vacancies (
	source_id, name, published_at, created_at, parsed_at, run_id,
	area_id, area_name,
	employer_id, employer_name,
	salary_from, salary_to, salary_currency, salary_gross,
	type_id, type_name, schedule_id, schedule_name,
	experience_id, experience_name, employment_id, employment_name,
	employment_form_id, employment_form_name,
	address_city, address_street, address_building, address_raw,
	address_lat, address_lng, metro_station, metro_line,
	snippet_requirement, snippet_responsibility,
	url, alternate_url, apply_alternate_url,
	archived, premium, has_test, response_letter_required,
	accept_temporary, accept_incomplete_resumes, internship, night_shifts,
	working_days, working_time_intervals, working_time_modes,
	work_format, work_schedule_by_days, working_hours, fly_in_fly_out_duration
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
	$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
	$41, $42, $43, $44, $45, $46, $47, $48, $49, $50,
	$51, $52
)
ON CONFLICT (source_id, published_at, created_at, parsed_at) DO NOTHING`

const insertVacancyRoleSQL = `
INSERT INTO vacancy_professional_roles (source_id, published_at, created_at, parsed_at, role_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (source_id, published_at, created_at, parsed_at, role_id) DO NOTHING`

// InsertVacancy appends one vacancy snapshot and its role links in one
// transaction. A snapshot with the same natural key is a no-op, never an
// error or an update.
func (s *Store) InsertVacancy(ctx context.Context, vacancy ingest.VacancyRow, roleIDs []int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin vacancy tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, insertVacancySQL, vacancyArgs(vacancy)...); err != nil {
		return fmt.Errorf("insert vacancy %d: %w", vacancy.SourceID, err)
	}
	for _, roleID := range roleIDs {
		_, err := tx.Exec(ctx, insertVacancyRoleSQL,
			vacancy.SourceID, vacancy.PublishedAt, vacancy.CreatedAt, vacancy.ParsedAt, roleID)
		if err != nil {
			return fmt.Errorf("insert vacancy %d role %d: %w", vacancy.SourceID, roleID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit vacancy tx: %w", err)
	}
	return nil
}

func vacancyArgs(v ingest.VacancyRow) []any {
	return []any{
		v.SourceID, v.Name, v.PublishedAt, v.CreatedAt, v.ParsedAt, v.RunID,
		v.AreaID, v.AreaName,
		v.EmployerID, v.EmployerName,
		v.SalaryFrom, v.SalaryTo, v.SalaryCurrency, v.SalaryGross,
		v.TypeID, v.TypeName, v.ScheduleID, v.ScheduleName,
		v.ExperienceID, v.ExperienceName, v.EmploymentID, v.EmploymentName,
		v.EmploymentFormID, v.EmploymentFormName,
		v.AddressCity, v.AddressStreet, v.AddressBuilding, v.AddressRaw,
		v.AddressLat, v.AddressLng, v.MetroStation, v.MetroLine,
		v.SnippetRequirement, v.SnippetResponsibility,
		v.URL, v.AlternateURL, v.ApplyAlternateURL,
		v.Archived, v.Premium, v.HasTest, v.ResponseLetterRequired,
		v.AcceptTemporary, v.AcceptIncompleteResumes, v.Internship, v.NightShifts,
		v.WorkingDays, v.WorkingTimeIntervals, v.WorkingTimeModes,
		v.WorkFormat, v.WorkScheduleByDays, v.WorkingHours, v.FlyInFlyOutDuration,
	}
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close() //nolint:errcheck
			return err
		}
	}
	return results.Close()
}
