package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite драйвер
)

// AccessMode определяет режим доступа к SQLite базе данных
type AccessMode string

const (
	// AccessModeReadOnly - режим только для чтения (по умолчанию для проб)
	AccessModeReadOnly AccessMode = "ro"
	// AccessModeReadWrite - режим чтения и записи
	AccessModeReadWrite AccessMode = "rw"
	// AccessModeReadWriteCreate - режим чтения/записи с созданием файла если не существует
	AccessModeReadWriteCreate AccessMode = "rwc"
)

// DBOptions содержит настройки подключения к проверяемой SQLite базе.
type DBOptions struct {
	// MaxOpenConns - максимальное количество открытых соединений
	MaxOpenConns int
	// ConnMaxIdleTime - максимальное время простоя соединения
	ConnMaxIdleTime time.Duration
	// PingTimeout - таймаут для проверки соединения при открытии
	PingTimeout time.Duration
	// BusyTimeout - таймаут ожидания при SQLITE_BUSY
	BusyTimeout time.Duration
	// AccessMode - режим доступа к базе данных
	AccessMode AccessMode
}

// DefaultDBOptions возвращает настройки по умолчанию для периодических проверок:
// одно соединение только на чтение, чтобы проба не мешала владельцу базы.
func DefaultDBOptions() DBOptions {
	return DBOptions{
		MaxOpenConns:    1,
		ConnMaxIdleTime: 10 * time.Minute,
		PingTimeout:     5 * time.Second,
		BusyTimeout:     5 * time.Second,
		AccessMode:      AccessModeReadOnly,
	}
}

// NewDB открывает SQLite базу с настройками по умолчанию.
func NewDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	return NewDBWithOptions(ctx, dbPath, DefaultDBOptions())
}

// NewDBWithOptions открывает SQLite базу с заданными параметрами и проверяет соединение.
func NewDBWithOptions(ctx context.Context, dbPath string, opts DBOptions) (*sql.DB, error) {
	db, err := sql.Open("sqlite", buildDSN(dbPath, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return db, nil
}

// NewInMemoryDB создает in-memory SQLite базу данных для тестов.
func NewInMemoryDB(ctx context.Context) (*sql.DB, error) {
	opts := DefaultDBOptions()
	opts.AccessMode = AccessModeReadWrite
	return NewDBWithOptions(ctx, ":memory:", opts)
}

// buildDSN строит DSN строку в формате modernc.org/sqlite. Режим доступа
// передается через URI, поэтому путь файла получает префикс "file:".
func buildDSN(dbPath string, opts DBOptions) string {
	var params []string
	uri := opts.AccessMode != "" && dbPath != ":memory:"
	if uri {
		params = append(params, "mode="+string(opts.AccessMode))
		if !strings.HasPrefix(dbPath, "file:") {
			dbPath = "file:" + dbPath
		}
	}
	if opts.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if len(params) == 0 {
		return dbPath
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// Version возвращает версию движка SQLite. Используется пробой как дешевый
// запрос полного цикла через драйвер.
func Version(ctx context.Context, db *sql.DB) (string, error) {
	var v string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v); err != nil {
		return "", fmt.Errorf("sqlite version query failed: %w", err)
	}
	return v, nil
}
