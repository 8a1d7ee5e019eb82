package pipeline

import "time"

// Options configures a Pipeline.
type Options struct {
	// CompanionFile is an optional runlog JSON backup merged by id before every import.
	// Read failures are ignored.
	CompanionFile string
	// NewID assigns ids to third-party imports. Defaults to random UUIDs.
	NewID func() string
	// Now is the clock used for import timing. Defaults to time.Now.
	Now func() time.Time
}

// Source is one named input to an import batch.
type Source struct {
	Name string
	Data []byte
}

// FileReport is the per-file outcome of an import batch.
type FileReport struct {
	FileName   string `json:"file_name"`
	Format     string `json:"format"`
	Outcome    string `json:"outcome"` // ok|no_sessions|missing_columns|unrecognized|unreadable
	Parsed     int    `json:"parsed"`
	Added      int    `json:"added"`
	Updated    int    `json:"updated"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// Summary is the outcome of one guarded pipeline call.
type Summary struct {
	ImportID   string       `json:"import_id"`
	Added      int          `json:"added"`
	Updated    int          `json:"updated"`
	Duplicates int          `json:"duplicates"`
	Skipped    int          `json:"skipped"`
	Total      int          `json:"total"`
	Saved      bool         `json:"saved"`
	Files      []FileReport `json:"files,omitempty"`
}

// Changed reports whether the call modified the log.
func (s Summary) Changed() bool {
	return s.Added > 0 || s.Updated > 0
}

// Outcome for files that could not be read from disk.
const OutcomeUnreadable = "unreadable"
