package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
)

func TestMemoryTokenStore_CicloBasico(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	got, err := store.Get(ctx, "shipbob:token:ch-1")
	require.NoError(t, err)
	assert.Nil(t, got, "clave inexistente devuelve nil sin error")

	state := &token.State{AccessToken: "tok", RefreshToken: "rt", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Set(ctx, "shipbob:token:ch-1", state, time.Hour))

	got, err = store.Get(ctx, "shipbob:token:ch-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok", got.AccessToken)

	require.NoError(t, store.Delete(ctx, "shipbob:token:ch-1"))
	got, err = store.Get(ctx, "shipbob:token:ch-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryTokenStore_ExpulsaPorTTL(t *testing.T) {
	store := NewMemoryTokenStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	state := &token.State{AccessToken: "tok", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Set(ctx, "k", state, time.Minute))

	now = now.Add(2 * time.Minute)
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "una entrada vencida se expulsa en la lectura")
}

func TestMemoryTokenStore_GetDevuelveCopia(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", &token.State{AccessToken: "a"}, time.Hour))

	first, err := store.Get(ctx, "k")
	require.NoError(t, err)
	first.AccessToken = "mutado"

	second, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", second.AccessToken, "mutar el resultado no toca el estado interno")
}
