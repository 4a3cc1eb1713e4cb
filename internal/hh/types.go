package hh

import "encoding/json"

// ListingPage mirrors the provider's listing response envelope. Items are kept
// raw so a single undecodable vacancy cannot poison the whole page.
type ListingPage struct {
	Items   []json.RawMessage `json:"items"`
	Found   int               `json:"found"`
	Pages   int               `json:"pages"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// Dictionary is the provider's generic {id, name} taxonomy object. The id is
// a string: taxonomy ids like "between1And3" are not numeric.
type Dictionary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Vacancy mirrors one raw vacancy object. Every nested object is optional in
// the source, hence the pointer fields; absent sub-objects must surface as
// null attributes, never as decode failures.
type Vacancy struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	PublishedAt *string `json:"published_at"`
	CreatedAt   *string `json:"created_at"`

	Area        *AreaRef     `json:"area"`
	Employer    *Employer    `json:"employer"`
	Salary      *Salary      `json:"salary"`
	SalaryRange *SalaryRange `json:"salary_range"`
	Address     *Address     `json:"address"`
	Snippet     *Snippet     `json:"snippet"`

	Type           *Dictionary `json:"type"`
	Schedule       *Dictionary `json:"schedule"`
	Experience     *Dictionary `json:"experience"`
	Employment     *Dictionary `json:"employment"`
	EmploymentForm *Dictionary `json:"employment_form"`

	ProfessionalRoles []Dictionary `json:"professional_roles"`

	WorkingDays          []Dictionary `json:"working_days"`
	WorkingTimeIntervals []Dictionary `json:"working_time_intervals"`
	WorkingTimeModes     []Dictionary `json:"working_time_modes"`
	WorkFormat           []Dictionary `json:"work_format"`
	WorkScheduleByDays   []Dictionary `json:"work_schedule_by_days"`
	WorkingHours         []Dictionary `json:"working_hours"`
	FlyInFlyOutDuration  []Dictionary `json:"fly_in_fly_out_duration"`

	URL               *string `json:"url"`
	AlternateURL      *string `json:"alternate_url"`
	ApplyAlternateURL *string `json:"apply_alternate_url"`

	Archived                bool `json:"archived"`
	Premium                 bool `json:"premium"`
	HasTest                 bool `json:"has_test"`
	ResponseLetterRequired  bool `json:"response_letter_required"`
	AcceptTemporary         bool `json:"accept_temporary"`
	AcceptIncompleteResumes bool `json:"accept_incomplete_resumes"`
	Internship              bool `json:"internship"`
	NightShifts             bool `json:"night_shifts"`
}

// AreaRef is the area reference embedded in a vacancy.
type AreaRef struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
	URL  *string `json:"url"`
}

// Employer mirrors the raw employer object. A listing may carry an employer
// block without an id; such vacancies are treated as employer-less.
type Employer struct {
	ID                   *string   `json:"id"`
	Name                 *string   `json:"name"`
	URL                  *string   `json:"url"`
	AlternateURL         *string   `json:"alternate_url"`
	VacanciesURL         *string   `json:"vacancies_url"`
	LogoURLs             *LogoURLs `json:"logo_urls"`
	CountryID            *string   `json:"country_id"`
	Trusted              bool      `json:"trusted"`
	AccreditedITEmployer bool      `json:"accredited_it_employer"`
}

// LogoURLs holds the employer logo variants.
type LogoURLs struct {
	Original *string `json:"original"`
	Size90   *string `json:"90"`
	Size240  *string `json:"240"`
}

// Salary is the legacy salary object.
type Salary struct {
	From     *int64  `json:"from"`
	To       *int64  `json:"to"`
	Currency *string `json:"currency"`
	Gross    *bool   `json:"gross"`
}

// SalaryRange is the newer salary object; preferred over Salary when both are
// present.
type SalaryRange struct {
	From     *int64  `json:"from"`
	To       *int64  `json:"to"`
	Currency *string `json:"currency"`
	Gross    *bool   `json:"gross"`
}

// Address carries the vacancy address sub-fields.
type Address struct {
	City     *string  `json:"city"`
	Street   *string  `json:"street"`
	Building *string  `json:"building"`
	Raw      *string  `json:"raw"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Metro    *Metro   `json:"metro"`
}

// Metro is the nearest metro station reference inside an address.
type Metro struct {
	StationName *string `json:"station_name"`
	LineName    *string `json:"line_name"`
}

// Snippet holds the free-text search snippets.
type Snippet struct {
	Requirement    *string `json:"requirement"`
	Responsibility *string `json:"responsibility"`
}

// AreaNode is one node of the provider's recursively nested region tree.
type AreaNode struct {
	ID       string     `json:"id"`
	ParentID *string    `json:"parent_id"`
	Name     string     `json:"name"`
	TimeZone *string    `json:"timezone"`
	Areas    []AreaNode `json:"areas"`
}

// RoleCatalog is the professional-role catalog response.
type RoleCatalog struct {
	Categories []RoleCategory `json:"categories"`
}

// RoleCategory groups professional roles.
type RoleCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Roles []Role `json:"roles"`
}

// Role is one professional role inside a category.
type Role struct {
	ID                      string `json:"id"`
	Name                    string `json:"name"`
	AcceptIncompleteResumes bool   `json:"accept_incomplete_resumes"`
}
