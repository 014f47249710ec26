package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"periodicd/internal/platform/sqlite"
	"periodicd/pkg/periodic"
)

// SQLite checks db with a sqlite_version() round trip.
func SQLite(db *sql.DB, target string) periodic.WorkFunc[Report] {
	return func(ctx context.Context) (Report, error) {
		if db == nil {
			return Report{}, fmt.Errorf("%w: sqlite %s: nil db", ErrBroken, target)
		}
		start := time.Now()
		v, err := sqlite.Version(ctx, db)
		r := newReport(KindSQLite, target, start)
		if err != nil {
			if errors.Is(err, sql.ErrConnDone) || isClosed(err) {
				return r, fmt.Errorf("%w: sqlite %s: %w", ErrBroken, target, err)
			}
			return unhealthy(r, err), nil
		}
		r.Healthy = true
		r.Detail = "sqlite " + v
		return r, nil
	}
}

// isClosed matches database/sql's "sql: database is closed", which has no
// exported sentinel.
func isClosed(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if err.Error() == "sql: database is closed" {
			return true
		}
	}
	return false
}
