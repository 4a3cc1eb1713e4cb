// Package ingest holds the domain model, the normalization engine and the
// pipeline orchestrator.
package ingest

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hhdata/vacancy-ingest/internal/hh"
)

// RunContext is the immutable per-run identity threaded through
// normalization and persistence. ParsedAt is captured once, so every
// snapshot written by a run shares the same natural-key timestamp.
type RunContext struct {
	RunID    uuid.UUID
	ParsedAt time.Time
}

// NewRunContext captures a fresh run identity from the clock.
func NewRunContext(clock Clock) RunContext {
	return RunContext{RunID: uuid.New(), ParsedAt: clock.Now()}
}

// Counters accumulates per-run outcomes.
type Counters struct {
	Processed int
	Errors    int
	Skipped   int
}

// AreaRow is one flattened region dimension row.
type AreaRow struct {
	ID       int64
	Name     string
	ParentID *int64
	TimeZone *string
}

// RoleCategoryRow is one professional-role category dimension row.
type RoleCategoryRow struct {
	ID   int64
	Name string
}

// RoleRow is one professional-role dimension row.
type RoleRow struct {
	ID                      int64
	Name                    string
	CategoryID              int64
	AcceptIncompleteResumes bool
}

// EmployerRow is the employer dimension row. UpdatedAt is stamped with the
// run's ParsedAt on every upsert.
type EmployerRow struct {
	ID                   int64
	Name                 string
	URL                  *string
	AlternateURL         *string
	VacanciesURL         *string
	LogoOriginal         *string
	Logo90               *string
	Logo240              *string
	CountryID            *int64
	Trusted              bool
	AccreditedITEmployer bool
	UpdatedAt            time.Time
}

// VacancyRow is the wide fact row. Its natural key is the 4-tuple
// (SourceID, PublishedAt, CreatedAt, ParsedAt): the same source id reappears
// across runs and each run appends a new snapshot instead of mutating a
// prior one. RunID is diagnostic only and not part of the key.
type VacancyRow struct {
	SourceID    int64
	Name        string
	PublishedAt time.Time
	CreatedAt   time.Time
	ParsedAt    time.Time
	RunID       uuid.UUID

	AreaID   *int64
	AreaName *string

	EmployerID   *int64
	EmployerName *string

	SalaryFrom     *int64
	SalaryTo       *int64
	SalaryCurrency *string
	SalaryGross    *bool

	TypeID             *string
	TypeName           *string
	ScheduleID         *string
	ScheduleName       *string
	ExperienceID       *string
	ExperienceName     *string
	EmploymentID       *string
	EmploymentName     *string
	EmploymentFormID   *string
	EmploymentFormName *string

	AddressCity     *string
	AddressStreet   *string
	AddressBuilding *string
	AddressRaw      *string
	AddressLat      *float64
	AddressLng      *float64
	MetroStation    *string
	MetroLine       *string

	SnippetRequirement    *string
	SnippetResponsibility *string

	URL               *string
	AlternateURL      *string
	ApplyAlternateURL *string

	Archived                bool
	Premium                 bool
	HasTest                 bool
	ResponseLetterRequired  bool
	AcceptTemporary         bool
	AcceptIncompleteResumes bool
	Internship              bool
	NightShifts             bool

	WorkingDays          *string
	WorkingTimeIntervals *string
	WorkingTimeModes     *string
	WorkFormat           *string
	WorkScheduleByDays   *string
	WorkingHours         *string
	FlyInFlyOutDuration  *string
}

// Lister is the slice of the API client the pipeline depends on.
type Lister interface {
	Areas(ctx context.Context) ([]hh.AreaNode, error)
	ProfessionalRoles(ctx context.Context) (hh.RoleCatalog, error)
	ListVacancies(ctx context.Context, search hh.SearchParameters, onPage hh.PageHandler, onItem hh.ItemHandler) error
}

// Store is the persistence contract. Each call runs in its own transaction:
// commit on success, rollback and error return on failure.
type Store interface {
	UpsertAreas(ctx context.Context, areas []AreaRow) error
	UpsertRoleCatalog(ctx context.Context, categories []RoleCategoryRow, roles []RoleRow) error
	UpsertEmployer(ctx context.Context, employer EmployerRow) error
	InsertVacancy(ctx context.Context, vacancy VacancyRow, roleIDs []int64) error
}

// Publisher emits run events to an external topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// BlobStore archives raw listing pages.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RawVacancy aliases the wire payload yielded by the paginator.
type RawVacancy = json.RawMessage
