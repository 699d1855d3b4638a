package database

import (
	"context"

	"github.com/frahmantamala/asset-inventory/internal"
	pkgLogger "github.com/frahmantamala/asset-inventory/pkg/logger"
	"gorm.io/gorm"
)

// Transaction runs fn in one gorm transaction. A serialization failure, a
// deadlock or a raw unique violation gets one more attempt; a second one is
// reported as ErrConcurrentUpdate. fn must not keep state between attempts.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	attempt := func() error {
		return db.WithContext(ctx).Transaction(fn)
	}

	err := attempt()
	if err == nil || !IsRetryable(err) {
		return err
	}

	pkgLogger.From(ctx).Warn("retrying transaction", "error", err)
	err = attempt()
	if err != nil && IsRetryable(err) {
		return internal.ErrConcurrentUpdate.WithCause(err)
	}
	return err
}
