package model

import "time"

// IndexSummary is the lightweight projection of a record used for ranking.
type IndexSummary struct {
	SubjectID           string    `json:"mep_id"`
	Name                string    `json:"name"`
	Country             string    `json:"country"`
	Affiliation         string    `json:"party"`
	LastUpdated         time.Time `json:"last_updated_utc"`
	TotalIncomeEntries  int       `json:"total_income_entries"`
	TotalGiftEntries    int       `json:"total_gifts_entries"`
	TotalEstimatedValue *float64  `json:"total_estimated_value_eur,omitempty"`
}

// IndexMeta describes an index document.
type IndexMeta struct {
	GeneratedAt     time.Time  `json:"generated_at"`
	TotalSubjects   int        `json:"total_meps"`
	LastFullRefresh *time.Time `json:"last_full_refresh,omitempty"`
}

// Index is the aggregate document listing every subject summary.
type Index struct {
	Meta     IndexMeta      `json:"meta"`
	Subjects []IndexSummary `json:"meps"`
}

// ChangeAction is the kind of change a run made to a subject's record.
type ChangeAction string

const (
	ChangeCreated ChangeAction = "created"
	ChangeUpdated ChangeAction = "updated"
	ChangeError   ChangeAction = "error"
)

// ChangelogEntry records one run's effect on one subject.
type ChangelogEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	RunID     string       `json:"run_id,omitempty"`
	SubjectID string       `json:"mep_id"`
	Action    ChangeAction `json:"action"`
	Changes   []string     `json:"changes,omitempty"`
	Error     string       `json:"error,omitempty"`
}
