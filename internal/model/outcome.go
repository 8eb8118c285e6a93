package model

// Stage names the pipeline step a subject reached or failed in.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageFetch    Stage = "fetch"
	StageExtract  Stage = "extract"
	StageValidate Stage = "validate"
	StageWrite    Stage = "write"
	StageDone     Stage = "done"
)

// RunOutcome is the per-subject result of a pipeline run.
type RunOutcome struct {
	SubjectID  string     `json:"mep_id"`
	Name       string     `json:"name"`
	Success    bool       `json:"success"`
	Stage      Stage      `json:"stage"`
	Confidence Confidence `json:"confidence,omitempty"`
	Method     string     `json:"method,omitempty"`
	Entries    int        `json:"entries"`
	Skipped    bool       `json:"skipped,omitempty"`
	Error      string     `json:"error,omitempty"`
}
