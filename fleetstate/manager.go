// Package fleetstate keeps robot state durable in SQL and mirrored in Redis.
package fleetstate

import (
	"context"
	"log"
	"sort"

	"podfleet/store"
)

// Manager provides write-through robot state: SQL first, then Redis.
// A nil RedisStore runs SQL-only.
type Manager struct {
	db    *store.DB
	redis *RedisStore
}

func NewManager(db *store.DB, redis *RedisStore) *Manager {
	return &Manager{db: db, redis: redis}
}

// PutRobot persists the robot and refreshes its cached copy.
func (m *Manager) PutRobot(rec *store.RobotRecord) error {
	if err := m.db.UpsertRobot(rec); err != nil {
		return err
	}
	if m.redis != nil {
		if err := m.redis.SetRobot(context.Background(), rec); err != nil {
			log.Printf("fleetstate: cache robot %d: %v", rec.Slot, err)
		}
	}
	return nil
}

// GetRobot reads from Redis, falls back to SQL.
func (m *Manager) GetRobot(slot int) (*store.RobotRecord, error) {
	if m.redis != nil {
		rec, err := m.redis.GetRobot(context.Background(), slot)
		if err == nil && rec != nil {
			return rec, nil
		}
	}
	return m.db.GetRobot(slot)
}

// Robots returns every known robot ordered by slot, preferring Redis.
func (m *Manager) Robots() ([]*store.RobotRecord, error) {
	if m.redis != nil {
		ctx := context.Background()
		slots, err := m.redis.GetAllSlots(ctx)
		if err == nil && len(slots) > 0 {
			sort.Ints(slots)
			var out []*store.RobotRecord
			for _, slot := range slots {
				rec, err := m.GetRobot(slot)
				if err == nil {
					out = append(out, rec)
				}
			}
			return out, nil
		}
	}
	return m.db.ListRobots()
}

// ClaimPod and ReleasePod mirror pod ownership for external readers.
// The engine's own exclusion sets remain authoritative.
func (m *Manager) ClaimPod(pod string) {
	if m.redis == nil {
		return
	}
	if err := m.redis.ClaimPod(context.Background(), pod); err != nil {
		log.Printf("fleetstate: claim pod %s: %v", pod, err)
	}
}

func (m *Manager) ReleasePod(pod string) {
	if m.redis == nil {
		return
	}
	if err := m.redis.ReleasePod(context.Background(), pod); err != nil {
		log.Printf("fleetstate: release pod %s: %v", pod, err)
	}
}

// Trim drops slots at or above n from both SQL and the cache.
func (m *Manager) Trim(n int) error {
	if m.redis != nil {
		ctx := context.Background()
		slots, _ := m.redis.GetAllSlots(ctx)
		for _, slot := range slots {
			if slot >= n {
				m.redis.RemoveRobot(ctx, slot)
			}
		}
	}
	return m.db.DeleteRobotsFrom(n)
}

// SyncRedisFromSQL rebuilds all Redis state from SQL. Called on startup.
func (m *Manager) SyncRedisFromSQL() error {
	if m.redis == nil {
		return nil
	}
	ctx := context.Background()
	m.redis.FlushAll(ctx)

	robots, err := m.db.ListRobots()
	if err != nil {
		return err
	}
	for _, rec := range robots {
		if err := m.redis.SetRobot(ctx, rec); err != nil {
			log.Printf("fleetstate: sync robot %d: %v", rec.Slot, err)
		}
	}
	log.Printf("fleetstate: synced %d robots to redis", len(robots))
	return nil
}
