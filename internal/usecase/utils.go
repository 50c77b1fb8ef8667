package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	walletListCacheKey = "wallets:all"

	walletCacheTTL   = 5 * time.Minute
	walletListTTL    = 1 * time.Minute
	walletHistoryTTL = 1 * time.Minute
)

func walletCacheKeyFor(walletID int64) string {
	return fmt.Sprintf("wallets:id:%d", walletID)
}

func walletTxnsCacheKey(walletID int64) string {
	return fmt.Sprintf("wallets:txns:%d", walletID)
}

func walletBatchesCacheKey(walletID int64) string {
	return fmt.Sprintf("wallets:batches:%d", walletID)
}

// invalidateWalletCaches drops every cached projection touched by a
// mutation on the given wallets. Best-effort: a stale read heals at TTL.
func invalidateWalletCaches(ctx context.Context, rdb *redis.Client, walletIDs ...int64) {
	if rdb == nil {
		return
	}
	keys := []string{walletListCacheKey}
	for _, id := range walletIDs {
		keys = append(keys,
			walletCacheKeyFor(id),
			walletTxnsCacheKey(id),
			walletBatchesCacheKey(id),
		)
	}
	_ = rdb.Del(ctx, keys...).Err()
}
