// Package model defines the declaration records, cache entries and run outcomes
// shared across the disclosure pipeline.
package model

import "time"

// Category classifies an income or interest entry.
type Category string

const (
	CategoryOutsideActivity Category = "outside_activity"
	CategoryBoardMembership Category = "board_membership"
	CategoryHonoraria       Category = "honoraria"
	CategoryOwnership       Category = "ownership"
	CategoryConsultancy     Category = "consultancy"
	CategoryTeaching        Category = "teaching"
	CategoryWriting         Category = "writing"
	CategoryOther           Category = "other"
)

// AllCategories returns every valid category in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryOutsideActivity,
		CategoryBoardMembership,
		CategoryHonoraria,
		CategoryOwnership,
		CategoryConsultancy,
		CategoryTeaching,
		CategoryWriting,
		CategoryOther,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, v := range AllCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// EntityType classifies the organisation behind an entry.
type EntityType string

const (
	EntityCompany        EntityType = "company"
	EntityNGO            EntityType = "ngo"
	EntityFoundation     EntityType = "foundation"
	EntityUniversity     EntityType = "university"
	EntityPublicBody     EntityType = "public_body"
	EntityMedia          EntityType = "media"
	EntityPoliticalParty EntityType = "political_party"
	EntityOther          EntityType = "other"
	EntityUnknown        EntityType = "unknown"
)

// AllEntityTypes returns every valid entity type.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityCompany,
		EntityNGO,
		EntityFoundation,
		EntityUniversity,
		EntityPublicBody,
		EntityMedia,
		EntityPoliticalParty,
		EntityOther,
		EntityUnknown,
	}
}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	for _, v := range AllEntityTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// Period is the payment frequency of an income entry.
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodAnnual  Period = "annual"
	PeriodOneOff  Period = "one-off"
	PeriodUnknown Period = "unknown"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodAnnual, PeriodOneOff, PeriodUnknown:
		return true
	}
	return false
}

// Confidence is a coarse quality label on extracted data.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// ParsingMethod records which extractor produced a record.
type ParsingMethod string

const (
	MethodHTML   ParsingMethod = "html"
	MethodPDF    ParsingMethod = "pdf"
	MethodManual ParsingMethod = "manual"
	MethodAPI    ParsingMethod = "api"
)

// Valid reports whether m is a known parsing method.
func (m ParsingMethod) Valid() bool {
	switch m {
	case MethodHTML, MethodPDF, MethodManual, MethodAPI:
		return true
	}
	return false
}

// IncomeEntry is a single outside activity, board seat, shareholding or other
// declared interest. Amounts are in EUR.
type IncomeEntry struct {
	Category      Category   `json:"category"`
	EntityName    string     `json:"entity_name"`
	EntityType    EntityType `json:"entity_type"`
	Role          string     `json:"role,omitempty"`
	AmountMin     *float64   `json:"amount_eur_min,omitempty"`
	AmountMax     *float64   `json:"amount_eur_max,omitempty"`
	Period        Period     `json:"period,omitempty"`
	StartDate     string     `json:"start_date,omitempty"`
	EndDate       string     `json:"end_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	SourceExcerpt string     `json:"source_excerpt,omitempty"`
}

// HasAmount reports whether either bound of the amount was resolved.
func (e IncomeEntry) HasAmount() bool {
	return e.AmountMin != nil || e.AmountMax != nil
}

// EstimatedValue returns the upper bound if present, else the lower bound, else 0.
func (e IncomeEntry) EstimatedValue() float64 {
	if e.AmountMax != nil {
		return *e.AmountMax
	}
	if e.AmountMin != nil {
		return *e.AmountMin
	}
	return 0
}

// GiftEntry is a declared gift, hospitality or sponsored travel.
type GiftEntry struct {
	Sponsor       string   `json:"sponsor"`
	Item          string   `json:"item"`
	ValueEUR      *float64 `json:"value_eur,omitempty"`
	Date          string   `json:"date,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	SourceExcerpt string   `json:"source_excerpt,omitempty"`
}

// DataQuality describes how a record was produced and what went wrong.
type DataQuality struct {
	Confidence    Confidence    `json:"confidence"`
	ParsingMethod ParsingMethod `json:"parsing_method"`
	Issues        []string      `json:"issues"`
}

// Sources lists where a record's data came from.
type Sources struct {
	DeclarationURL string   `json:"declaration_url"`
	RegisterURLs   []string `json:"transparency_register_urls,omitempty"`
}

// DeclarationRecord is the final normalized output for one subject.
type DeclarationRecord struct {
	SubjectID   string        `json:"mep_id"`
	Name        string        `json:"name"`
	Country     string        `json:"country"`
	Affiliation string        `json:"party"`
	Sources     Sources       `json:"sources"`
	LastUpdated time.Time     `json:"last_updated_utc"`
	Income      []IncomeEntry `json:"income_and_interests"`
	Gifts       []GiftEntry   `json:"gifts_travel"`
	DataQuality DataQuality   `json:"data_quality"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
