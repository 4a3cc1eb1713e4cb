package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hhdata/vacancy-ingest/internal/hh"
)

// ErrMissingField marks a vacancy that lacks one of the required source
// fields (id, name, published_at, created_at). The failure is scoped to that
// single record.
var ErrMissingField = errors.New("missing required field")

// hhTimeLayout is the provider's timestamp format.
const hhTimeLayout = "2006-01-02T15:04:05-0700"

// NormalizeVacancy maps one raw vacancy into a fact row, an optional
// employer dimension row and the list of professional-role ids. A nil
// employer row means the vacancy is employer-less. The function is pure:
// all run-scoped values come from the RunContext.
func NormalizeVacancy(raw RawVacancy, run RunContext) (VacancyRow, *EmployerRow, []int64, error) {
	var v hh.Vacancy
	if err := json.Unmarshal(raw, &v); err != nil {
		return VacancyRow{}, nil, nil, fmt.Errorf("decode vacancy: %w", err)
	}

	sourceID, ok := parseID(v.ID)
	if !ok {
		return VacancyRow{}, nil, nil, fmt.Errorf("%w: id", ErrMissingField)
	}
	if v.Name == nil || *v.Name == "" {
		return VacancyRow{}, nil, nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	publishedAt, err := parseTime(v.PublishedAt)
	if err != nil {
		return VacancyRow{}, nil, nil, fmt.Errorf("%w: published_at", ErrMissingField)
	}
	createdAt, err := parseTime(v.CreatedAt)
	if err != nil {
		return VacancyRow{}, nil, nil, fmt.Errorf("%w: created_at", ErrMissingField)
	}

	row := VacancyRow{
		SourceID:    sourceID,
		Name:        *v.Name,
		PublishedAt: publishedAt,
		CreatedAt:   createdAt,
		ParsedAt:    run.ParsedAt,
		RunID:       run.RunID,

		URL:               v.URL,
		AlternateURL:      v.AlternateURL,
		ApplyAlternateURL: v.ApplyAlternateURL,

		Archived:                v.Archived,
		Premium:                 v.Premium,
		HasTest:                 v.HasTest,
		ResponseLetterRequired:  v.ResponseLetterRequired,
		AcceptTemporary:         v.AcceptTemporary,
		AcceptIncompleteResumes: v.AcceptIncompleteResumes,
		Internship:              v.Internship,
		NightShifts:             v.NightShifts,

		WorkingDays:          joinNames(v.WorkingDays),
		WorkingTimeIntervals: joinNames(v.WorkingTimeIntervals),
		WorkingTimeModes:     joinNames(v.WorkingTimeModes),
		WorkFormat:           joinNames(v.WorkFormat),
		WorkScheduleByDays:   joinNames(v.WorkScheduleByDays),
		WorkingHours:         joinNames(v.WorkingHours),
		FlyInFlyOutDuration:  joinNames(v.FlyInFlyOutDuration),
	}

	if v.Area != nil {
		if id, ok := parseID(v.Area.ID); ok {
			row.AreaID = &id
		}
		row.AreaName = v.Area.Name
	}

	row.SalaryFrom, row.SalaryTo, row.SalaryCurrency, row.SalaryGross = mergeSalary(v.Salary, v.SalaryRange)

	row.TypeID, row.TypeName = dictFields(v.Type)
	row.ScheduleID, row.ScheduleName = dictFields(v.Schedule)
	row.ExperienceID, row.ExperienceName = dictFields(v.Experience)
	row.EmploymentID, row.EmploymentName = dictFields(v.Employment)
	row.EmploymentFormID, row.EmploymentFormName = dictFields(v.EmploymentForm)

	if a := v.Address; a != nil {
		row.AddressCity = a.City
		row.AddressStreet = a.Street
		row.AddressBuilding = a.Building
		row.AddressRaw = a.Raw
		row.AddressLat = a.Lat
		row.AddressLng = a.Lng
		if a.Metro != nil {
			row.MetroStation = a.Metro.StationName
			row.MetroLine = a.Metro.LineName
		}
	}

	if s := v.Snippet; s != nil {
		row.SnippetRequirement = s.Requirement
		row.SnippetResponsibility = s.Responsibility
	}

	employer := normalizeEmployer(v.Employer, run)
	if employer != nil {
		row.EmployerID = &employer.ID
		row.EmployerName = &employer.Name
	} else if v.Employer != nil {
		row.EmployerName = v.Employer.Name
	}

	return row, employer, roleIDs(v.ProfessionalRoles), nil
}

// normalizeEmployer returns nil when the employer block is absent or carries
// no id; such vacancies are treated as employer-less.
func normalizeEmployer(e *hh.Employer, run RunContext) *EmployerRow {
	if e == nil {
		return nil
	}
	id, ok := parseID(e.ID)
	if !ok {
		return nil
	}
	row := &EmployerRow{
		ID:                   id,
		URL:                  e.URL,
		AlternateURL:         e.AlternateURL,
		VacanciesURL:         e.VacanciesURL,
		Trusted:              e.Trusted,
		AccreditedITEmployer: e.AccreditedITEmployer,
		UpdatedAt:            run.ParsedAt,
	}
	if e.Name != nil {
		row.Name = *e.Name
	}
	if e.LogoURLs != nil {
		row.LogoOriginal = e.LogoURLs.Original
		row.Logo90 = e.LogoURLs.Size90
		row.Logo240 = e.LogoURLs.Size240
	}
	if countryID, ok := parseID(e.CountryID); ok {
		row.CountryID = &countryID
	}
	return row
}

// mergeSalary prefers the newer salary_range object over the legacy salary
// one. A single-ended range is collapsed to a point value by copying the
// present bound into the absent one; no from<=to validation is performed.
func mergeSalary(legacy *hh.Salary, rng *hh.SalaryRange) (from, to *int64, currency *string, gross *bool) {
	switch {
	case rng != nil:
		from, to, currency, gross = rng.From, rng.To, rng.Currency, rng.Gross
	case legacy != nil:
		from, to, currency, gross = legacy.From, legacy.To, legacy.Currency, legacy.Gross
	default:
		return nil, nil, nil, nil
	}

	if from == nil && to != nil {
		v := *to
		from = &v
	} else if to == nil && from != nil {
		v := *from
		to = &v
	}
	return from, to, currency, gross
}

// roleIDs extracts integer role ids, skipping entries without a usable id.
func roleIDs(roles []hh.Dictionary) []int64 {
	var ids []int64
	for _, r := range roles {
		if id, err := strconv.ParseInt(r.ID, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// joinNames flattens named sub-objects into a comma-and-space-joined string,
// skipping entries without a name. An empty or absent list normalizes to
// nil, not an empty string.
func joinNames(items []hh.Dictionary) *string {
	var names []string
	for _, item := range items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	joined := strings.Join(names, ", ")
	return &joined
}

// dictFields splits a taxonomy object into nullable id and name columns.
func dictFields(d *hh.Dictionary) (id, name *string) {
	if d == nil {
		return nil, nil
	}
	if d.ID != "" {
		v := d.ID
		id = &v
	}
	if d.Name != "" {
		v := d.Name
		name = &v
	}
	return id, name
}

// parseID coerces a numeric-looking external id into an int64.
func parseID(s *string) (int64, bool) {
	if s == nil || *s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseTime(s *string) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(hhTimeLayout, *s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", *s, err)
	}
	return t, nil
}
