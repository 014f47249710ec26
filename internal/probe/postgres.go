package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"periodicd/internal/platform/pg"
	"periodicd/pkg/periodic"
)

// Postgres checks pool with a ping and SELECT 1 and attaches pool statistics.
func Postgres(pool *pgxpool.Pool, target string) periodic.WorkFunc[Report] {
	return func(ctx context.Context) (Report, error) {
		if pool == nil {
			return Report{}, fmt.Errorf("%w: postgres %s: %w", ErrBroken, target, pg.ErrNilPool)
		}
		start := time.Now()
		err := pg.HealthCheckPool(ctx, pool)
		r := newReport(KindPostgres, target, start)

		stats := pg.GetPoolStats(pool)
		r.Extra = map[string]any{"pool": stats, "saturated": pg.IsSaturated(stats)}
		if err != nil {
			return unhealthy(r, err), nil
		}
		r.Healthy = true
		return r, nil
	}
}
