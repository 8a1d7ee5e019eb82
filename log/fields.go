package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldImportID  = "import_id"

	// Import fields
	FieldFile     = "file"
	FieldFormat   = "format"
	FieldNode     = "node"
	FieldRow      = "row"
	FieldReason   = "reason"
	FieldParsed   = "parsed"
	FieldSkipped  = "skipped"
	FieldAdded    = "added"
	FieldUpdated  = "updated"
	FieldDupes    = "duplicates"
	FieldOutcome  = "outcome"
	FieldStore    = "store"
	FieldPath     = "path"
	FieldDuration = "duration_ms"
	FieldSessions = "sessions"
)
