package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// AcquireBillingPairLock serializes payment creation per (condo, tenant)
// pair across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB transaction that will do the creation.
func AcquireBillingPairLock(tx *gorm.DB, condoId string, tenantId string) error {
	lockName := billingLockName(condoId, tenantId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire billing lock for condo_id=%s tenant_id=%s", condoId, tenantId)
	}
	return nil
}

func ReleaseBillingPairLock(tx *gorm.DB, condoId string, tenantId string) {
	lockName := billingLockName(condoId, tenantId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

func billingLockName(condoId string, tenantId string) string {
	return fmt.Sprintf("billing:%s:%s", condoId, tenantId)
}

// obtainBillingRedisLock takes a best-effort cross-instance redis lock on
// top of the advisory lock, so concurrent creators on other instances back
// off early instead of queueing on GET_LOCK. A nil return means proceed
// without it (redis down or lock held).
func obtainBillingRedisLock(ctx context.Context, condoId string, tenantId string) *redislock.Lock {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}
	lock, err := locker.Obtain(ctx, "lock:"+billingLockName(condoId, tenantId), 30*time.Second, nil)
	if err != nil {
		if err != redislock.ErrNotObtained {
			config.LogError(config.GetLogger(), "workflow", "obtainBillingRedisLock", "obtain redis lock", billingLockName(condoId, tenantId), err)
		}
		return nil
	}
	return lock
}
