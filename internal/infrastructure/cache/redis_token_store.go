package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
)

var _ token.Store = (*RedisTokenStore)(nil)

// RedisTokenStore cache compartido de tokens OAuth sobre Redis. El TTL de la
// clave sigue la vida del token, pero la expulsión es orientativa: los
// lectores siguen validando ExpiresAt.
type RedisTokenStore struct {
	rdb *redis.Client
}

// NewRedisTokenStore construye el store sobre el cliente dado.
func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

// Get devuelve el estado del token o (nil, nil) si la clave no existe.
func (s *RedisTokenStore) Get(ctx context.Context, key string) (*token.State, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var state token.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("deserializar token %s: %w", key, err)
	}
	return &state, nil
}

// Set guarda el estado con el TTL dado.
func (s *RedisTokenStore) Set(ctx context.Context, key string, state *token.State, ttl time.Duration) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("serializar token %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete descarta el estado del token.
func (s *RedisTokenStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
