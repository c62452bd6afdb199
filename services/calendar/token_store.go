package calendar

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"golang.org/x/oauth2"
)

const tokenKeyPrefix = "calendar:token:"

// RedisTokenStore reads linked-calendar tokens written by the account
// linking flow (outside this service).
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Token(ctx context.Context, clientID string) (*oauth2.Token, error) {
	raw, err := s.client.Get(ctx, tokenKeyPrefix+clientID).Result()
	if err == redis.Nil {
		return nil, ErrNoLinkedCalendar
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar token for %s: %w", clientID, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("corrupt calendar token for %s: %w", clientID, err)
	}
	return &token, nil
}
