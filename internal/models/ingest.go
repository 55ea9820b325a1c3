// ABOUTME: Ingestion outcome models for single files and folder walks
// ABOUTME: Every file ends in exactly one of SKIPPED, INGESTED or FAILED
package models

// IngestStatus is the terminal state of one ingestion call
type IngestStatus string

const (
	StatusSkipped  IngestStatus = "SKIPPED"
	StatusIngested IngestStatus = "INGESTED"
	StatusFailed   IngestStatus = "FAILED"
)

// IsValid checks if the status is a known terminal state
func (s IngestStatus) IsValid() bool {
	switch s {
	case StatusSkipped, StatusIngested, StatusFailed:
		return true
	}
	return false
}

// IngestResult describes what happened to one file
type IngestResult struct {
	Status   IngestStatus `json:"status"`
	Path     string       `json:"path"`
	Source   string       `json:"source"`
	FileHash string       `json:"file_hash,omitempty"`
	Added    int          `json:"added"`
	Err      error        `json:"-"`
	Error    string       `json:"error,omitempty"`
}

// Skipped reports whether the file content was already present
func (r IngestResult) Skipped() bool {
	return r.Status == StatusSkipped
}

// FolderReport summarises a recursive folder ingestion
type FolderReport struct {
	Files   []IngestResult `json:"files"`
	Added   int            `json:"added"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
}

// Record adds a file result to the report totals
func (r *FolderReport) Record(res IngestResult) {
	r.Files = append(r.Files, res)
	switch res.Status {
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	default:
		r.Added += res.Added
	}
}
