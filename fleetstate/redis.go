package fleetstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"podfleet/store"
)

// RedisStore caches robot state and the claimed pod set for dashboards.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func robotKey(slot int) string {
	return fmt.Sprintf("podfleet:robot:%d", slot)
}

const (
	allRobotsKey = "podfleet:robots"
	claimedKey   = "podfleet:pods:claimed"
)

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) SetRobot(ctx context.Context, rec *store.RobotRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, robotKey(rec.Slot), data, 0)
	pipe.SAdd(ctx, allRobotsKey, rec.Slot)
	_, err = pipe.Exec(ctx)
	return err
}

// GetRobot returns nil, nil when the slot is not cached.
func (r *RedisStore) GetRobot(ctx context.Context, slot int) (*store.RobotRecord, error) {
	data, err := r.client.Get(ctx, robotKey(slot)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec store.RobotRecord
	return &rec, json.Unmarshal(data, &rec)
}

func (r *RedisStore) GetAllSlots(ctx context.Context) ([]int, error) {
	members, err := r.client.SMembers(ctx, allRobotsKey).Result()
	if err != nil {
		return nil, err
	}
	slots := make([]int, 0, len(members))
	for _, m := range members {
		slot, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (r *RedisStore) ClaimPod(ctx context.Context, pod string) error {
	return r.client.SAdd(ctx, claimedKey, pod).Err()
}

func (r *RedisStore) ReleasePod(ctx context.Context, pod string) error {
	return r.client.SRem(ctx, claimedKey, pod).Err()
}

func (r *RedisStore) RemoveRobot(ctx context.Context, slot int) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, robotKey(slot))
	pipe.SRem(ctx, allRobotsKey, slot)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	slots, err := r.GetAllSlots(ctx)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		r.RemoveRobot(ctx, slot)
	}
	return r.client.Del(ctx, allRobotsKey, claimedKey).Err()
}
