package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/scythe504/triplay-backend/internal"
)

// ChannelPattern matches every room channel.
const ChannelPattern = "room-*"

const channelPrefix = "room-"

// Process-wide handle. Connect once at start, Close at stop.
var client *redis.Client

// Connect initializes the Redis client
func Connect(ctx context.Context, addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		client = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		err := client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client instance, nil before Connect.
func GetClient() *redis.Client {
	return client
}

func Channel(roomID string) string {
	return channelPrefix + roomID
}

// RoomFromChannel is the inverse of Channel.
func RoomFromChannel(channel string) (string, bool) {
	roomID, ok := strings.CutPrefix(channel, channelPrefix)
	return roomID, ok && roomID != ""
}

// RedisPublisher sends room notifications over Redis pub/sub so every
// server instance can relay them to its own websocket clients.
type RedisPublisher struct {
	client *redis.Client
}

func NewPublisher(c *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: c}
}

func (p *RedisPublisher) Publish(ctx context.Context, roomID string, msg internal.Message[any]) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	if err := p.client.Publish(ctx, Channel(roomID), data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", Channel(roomID), err)
	}
	return nil
}
