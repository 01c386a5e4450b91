package adminops

import (
	"context"
)

// LogRepository persists the append-only action log.
type LogRepository interface {
	Append(ctx context.Context, e *LogEntry) error
	List(ctx context.Context, limit, offset int) ([]*LogEntry, int, error)
}
