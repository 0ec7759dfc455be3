package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
)

var _ token.Store = (*MemoryTokenStore)(nil)

// MemoryTokenStore store de tokens en memoria para entornos sin Redis
// (desarrollo local y tests). Expulsa entradas vencidas en la lectura.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	state     token.State
	expiresAt time.Time
}

// NewMemoryTokenStore construye el store vacío.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get devuelve el estado o (nil, nil) si no existe o su TTL venció.
func (s *MemoryTokenStore) Get(_ context.Context, key string) (*token.State, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, nil
	}
	cp := entry.state
	return &cp, nil
}

// Set guarda el estado con el TTL dado.
func (s *MemoryTokenStore) Set(_ context.Context, key string, state *token.State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{state: *state, expiresAt: s.now().Add(ttl)}
	return nil
}

// Delete descarta el estado.
func (s *MemoryTokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
