package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	importIDKey ctxKey = "import_id"
	loggerKey   ctxKey = "logger"
)

// ContextWithImportID stores the import batch identifier in the context.
func ContextWithImportID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, importIDKey, id)
}

// ImportIDFromContext extracts the import batch identifier if present.
func ImportIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(importIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithLogger attaches a logger to the context.
func ContextWithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context logger, or the base logger, enriched with the
// import id when one is set.
func FromContext(ctx context.Context) zerolog.Logger {
	l := Base()
	if ctx == nil {
		return l
	}
	if stored, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		l = stored
	}
	if id := ImportIDFromContext(ctx); id != "" {
		l = l.With().Str(FieldImportID, id).Logger()
	}
	return l
}
