package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

const (
	stockKeyPrefix = "stock:"
	UpdatesChannel = "inventory:updates"
)

// mirrorItemScript overwrites the hash only when the incoming version is newer.
var mirrorItemScript = redis.NewScript(`
local key = KEYS[1]
local version = tonumber(ARGV[1])

local current = redis.call('HGET', key, 'version')
if current and tonumber(current) >= version then
	return 0
end

redis.call('HSET', key,
	'version', ARGV[1],
	'name', ARGV[2],
	'total_stock', ARGV[3],
	'available_stock', ARGV[4],
	'reserved_stock', ARGV[5],
	'updated_at', ARGV[6])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func stockKey(itemID int) string {
	return stockKeyPrefix + strconv.Itoa(itemID)
}

func (r *RedisAdapter) MirrorItem(ctx context.Context, item domain.InventoryItem) error {
	_, err := r.mirror(ctx, item)
	return err
}

// mirror reports whether the cached hash was replaced.
func (r *RedisAdapter) mirror(ctx context.Context, item domain.InventoryItem) (bool, error) {
	result, err := mirrorItemScript.Run(ctx, r.client, []string{stockKey(item.ID)},
		item.Version,
		item.Name,
		item.TotalStock,
		item.AvailableStock,
		item.ReservedStock,
		item.LastUpdated.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("mirror item %d: %w", item.ID, err)
	}

	return result == 1, nil
}

// CachedStock reads back the mirrored counters. ok is false when the item was never mirrored.
func (r *RedisAdapter) CachedStock(ctx context.Context, itemID int) (item domain.InventoryItem, ok bool, err error) {
	fields, err := r.client.HGetAll(ctx, stockKey(itemID)).Result()
	if err != nil {
		return domain.InventoryItem{}, false, err
	}
	if len(fields) == 0 {
		return domain.InventoryItem{}, false, nil
	}

	item = domain.InventoryItem{ID: itemID, Name: fields["name"]}
	item.TotalStock, _ = strconv.Atoi(fields["total_stock"])
	item.AvailableStock, _ = strconv.Atoi(fields["available_stock"])
	item.ReservedStock, _ = strconv.Atoi(fields["reserved_stock"])
	item.Version, _ = strconv.ParseUint(fields["version"], 10, 64)
	return item, true, nil
}

// Subscribe consumes JSON stock update batches from the updates channel until ctx is done.
// Undecodable messages are skipped.
func (r *RedisAdapter) Subscribe(ctx context.Context, handle func([]domain.StockUpdate)) error {
	sub := r.client.Subscribe(ctx, UpdatesChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", UpdatesChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var updates []domain.StockUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &updates); err != nil {
				continue
			}
			handle(updates)
		}
	}
}

func (r *RedisAdapter) PublishUpdates(ctx context.Context, updates []domain.StockUpdate) error {
	payload, err := json.Marshal(updates)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, UpdatesChannel, payload).Err()
}

// Forget drops mirrored hashes. Versions restart with the process, so the server
// clears its items on startup.
func (r *RedisAdapter) Forget(ctx context.Context, itemIDs ...int) error {
	if len(itemIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		keys = append(keys, stockKey(id))
	}
	return r.client.Del(ctx, keys...).Err()
}
