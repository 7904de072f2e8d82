package utils

import (
	"context"
	"crypto/sha1"
	"encoding/hex"

	"github.com/redis/go-redis/v9"
)

const (
	ActivityListKeyPrefix = "cache:activities:list:"
	ActivityItemKeyPrefix = "cache:activities:item:"
)

// Sha1Hex keeps Redis keys short.
func Sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ActivityItemKey is shared by the response cache and the invalidator so a
// single item can be purged without scanning.
func ActivityItemKey(id string) string {
	return ActivityItemKeyPrefix + Sha1Hex("GET|/activities/"+id)
}

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

func (ci *CacheInvalidator) PurgeActivityList(ctx context.Context) error {
	iter := ci.rdb.Scan(ctx, 0, ActivityListKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := ci.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (ci *CacheInvalidator) PurgeActivity(ctx context.Context, id string) error {
	return ci.rdb.Del(ctx, ActivityItemKey(id), ActivityItemKey(id)+":attendees").Err()
}

// PurgeAll drops the list and the item for id.
func (ci *CacheInvalidator) PurgeAll(ctx context.Context, id string) error {
	if err := ci.PurgeActivityList(ctx); err != nil {
		return err
	}
	return ci.PurgeActivity(ctx, id)
}
