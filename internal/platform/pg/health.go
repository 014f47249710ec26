package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNilPool возвращается при проверке несуществующего пула.
var ErrNilPool = errors.New("pool is nil")

// HealthCheckPool выполняет проверку здоровья пула: ping и простой запрос.
// Контекст ограничивает всю проверку.
func HealthCheckPool(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return ErrNilPool
	}

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pool ping failed: %w", err)
	}

	var result int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("simple query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: got %d, want 1", result)
	}

	return nil
}

// DBStats содержит статистику подключений к БД.
type DBStats struct {
	MaxConns     int32         `json:"max_conns"`     // Максимальное количество подключений
	OpenConns    int32         `json:"open_conns"`    // Текущее количество открытых подключений
	InUse        int32         `json:"in_use"`        // Количество подключений в использовании
	Idle         int32         `json:"idle"`          // Количество простаивающих подключений
	WaitCount    int64         `json:"wait_count"`    // Количество ожиданий подключения
	WaitDuration time.Duration `json:"wait_duration"` // Общее время ожидания
}

// GetPoolStats возвращает статистику пула подключений.
func GetPoolStats(pool *pgxpool.Pool) DBStats {
	if pool == nil {
		return DBStats{}
	}

	stats := pool.Stat()

	return DBStats{
		MaxConns:     stats.MaxConns(),
		OpenConns:    stats.TotalConns(),
		InUse:        stats.AcquiredConns(),
		Idle:         stats.IdleConns(),
		WaitCount:    stats.EmptyAcquireCount(),
		WaitDuration: stats.AcquireDuration(),
	}
}

// IsSaturated сообщает, что пул почти исчерпан: пробы перекрываются и
// ждут соединений.
func IsSaturated(stats DBStats) bool {
	if stats.MaxConns == 0 {
		return false
	}
	return float64(stats.InUse)/float64(stats.MaxConns) > 0.9
}
