package token_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/httpx"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

// mapStore store en memoria para tests, con registro del último TTL.
type mapStore struct {
	mu      sync.Mutex
	states  map[string]*token.State
	lastTTL time.Duration
	deletes int
}

func newMapStore() *mapStore {
	return &mapStore{states: make(map[string]*token.State)}
}

func (s *mapStore) Get(_ context.Context, key string) (*token.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (s *mapStore) Set(_ context.Context, key string, state *token.State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.states[key] = &cp
	s.lastTTL = ttl
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	s.deletes++
	return nil
}

func newManager(t *testing.T, tokenURL string, store token.Store) *token.Manager {
	t.Helper()
	exec := httpx.New(&http.Client{Timeout: 5 * time.Second}, logger.Nop())
	return token.NewManager(
		provider.CodeShipBob,
		token.Endpoint{TokenURL: tokenURL, ClientID: "cid", ClientSecret: "secret"},
		store,
		exec,
		logger.Nop(),
	)
}

func TestManager_TokenCacheadoValidoNoLlamaAlProveedor(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newMapStore()
	require.NoError(t, store.Set(context.Background(), "shipbob:token:ch-1", &token.State{
		AccessToken:  "vivo",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, time.Hour))

	mgr := newManager(t, srv.URL, store)

	got, err := mgr.AccessToken(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "vivo", got)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls), "un token válido no toca el endpoint OAuth")
}

func TestManager_RefreshConcurrenteEsSingleFlight(t *testing.T) {
	var refreshes int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		<-release
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "rt-viejo", r.FormValue("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"nuevo","refresh_token":"rt-nuevo","expires_in":3600}`))
	}))
	defer srv.Close()

	store := newMapStore()
	require.NoError(t, store.Set(context.Background(), "shipbob:token:ch-1", &token.State{
		AccessToken:  "caducado",
		RefreshToken: "rt-viejo",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}, time.Hour))

	mgr := newManager(t, srv.URL, store)

	const callers = 5
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = mgr.AccessToken(context.Background(), "ch-1")
		}(i)
	}
	// Dar margen a que todos los callers lleguen al single-flight antes de
	// liberar la respuesta del servidor.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "nuevo", tokens[i])
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshes), "n callers concurrentes, un solo refresh HTTP")

	// El estado persistido rota también el refresh token.
	st, err := store.Get(context.Background(), "shipbob:token:ch-1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "rt-nuevo", st.RefreshToken)
	assert.Equal(t, time.Hour, store.lastTTL)
}

func TestManager_SinCredencialesNoLlamaAlProveedor(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	mgr := newManager(t, srv.URL, newMapStore())

	_, err := mgr.AccessToken(context.Background(), "ch-sin-tokens")
	require.ErrorIs(t, err, provider.ErrNoCredentials)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestManager_RefreshRechazadoDescartaCredenciales(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	store := newMapStore()
	require.NoError(t, store.Set(context.Background(), "shipbob:token:ch-1", &token.State{
		AccessToken:  "caducado",
		RefreshToken: "rt-revocado",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}, time.Hour))

	mgr := newManager(t, srv.URL, store)

	_, err := mgr.AccessToken(context.Background(), "ch-1")
	require.ErrorIs(t, err, provider.ErrAuth, "un refresh rechazado sale como error de autenticación, no como pánico")

	st, gerr := store.Get(context.Background(), "shipbob:token:ch-1")
	require.NoError(t, gerr)
	assert.Nil(t, st, "las credenciales revocadas se descartan del cache")
}

func TestManager_MargenDeSeguridadFuerzaRefresh(t *testing.T) {
	var refreshes int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"nuevo","refresh_token":"rt","expires_in":3600}`))
	}))
	defer srv.Close()

	store := newMapStore()
	// Token técnicamente vigente pero dentro del margen de 60s: se refresca.
	require.NoError(t, store.Set(context.Background(), "shipbob:token:ch-1", &token.State{
		AccessToken:  "por-caducar",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(30 * time.Second),
	}, time.Hour))

	mgr := newManager(t, srv.URL, store)

	got, err := mgr.AccessToken(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "nuevo", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshes))
}

func TestManager_IntercambioDeCodigoPersisteEstado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "abc123", r.FormValue("code"))
		assert.Equal(t, "cid", r.FormValue("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"primero","refresh_token":"rt-1","expires_in":7200}`))
	}))
	defer srv.Close()

	store := newMapStore()
	mgr := newManager(t, srv.URL, store)

	st, err := mgr.ExchangeAuthorizationCode(context.Background(), "ch-1", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "primero", st.AccessToken)

	cached, err := store.Get(context.Background(), "shipbob:token:ch-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "rt-1", cached.RefreshToken)
	assert.Equal(t, 2*time.Hour, store.lastTTL)
}
