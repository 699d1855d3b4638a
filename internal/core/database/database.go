package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const driverName = "pgx"

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// Open connects once through sqlx and hands the same pool to gorm, so the
// activity store and the repositories share connections.
func Open(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	sqlxDB, err := sqlx.Connect(driverName, cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlxDB.Ping(); err != nil {
		_ = sqlxDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		_ = sqlxDB.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return sqlxDB, gormDB, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation recognises duplicate keys from postgres and from the
// sqlite driver used in tests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsRetryable reports transaction failures worth one more attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsUniqueViolation(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}
