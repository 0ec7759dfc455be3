package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/httpx"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

// defaultSafetyMargin margen antes de la expiración que dispara el refresh
// proactivo: un token a punto de expirar no sirve para una llamada en vuelo.
const defaultSafetyMargin = 60 * time.Second

// State estado efímero del token OAuth de un canal. Se cachea en el store
// compartido con TTL = vida restante; los lectores revalidan ExpiresAt porque
// la expulsión por TTL no es exacta.
type State struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid indica si el token sigue siendo usable más allá del margen de seguridad.
func (s *State) Valid(now time.Time, margin time.Duration) bool {
	return s != nil && s.AccessToken != "" && s.ExpiresAt.After(now.Add(margin))
}

// Store puerto del cache compartido de tokens. Clave: "{provider}:token:{channelID}".
// Get devuelve (nil, nil) si la clave no existe o ya expiró.
type Store interface {
	Get(ctx context.Context, key string) (*State, error)
	Set(ctx context.Context, key string, state *State, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Endpoint credenciales OAuth del proveedor.
type Endpoint struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Manager ciclo de vida de tokens OAuth por (proveedor, canal):
// NoToken → Authorized → Refreshing → Authorized | Expired.
// El refresh es single-flight: dos llamadas concurrentes con token expirado
// producen una sola petición HTTP; la segunda espera el resultado de la primera.
type Manager struct {
	code     provider.Code
	endpoint Endpoint
	store    Store
	exec     *httpx.Executor
	margin   time.Duration
	group    singleflight.Group
	log      *logger.Logger
	now      func() time.Time
}

// ManagerOption configura el Manager.
type ManagerOption func(*Manager)

// WithSafetyMargin fija el margen de refresh proactivo.
func WithSafetyMargin(d time.Duration) ManagerOption {
	return func(m *Manager) { m.margin = d }
}

// WithClock reemplaza el reloj. Para tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager construye el gestor de tokens para un proveedor.
func NewManager(code provider.Code, endpoint Endpoint, store Store, exec *httpx.Executor, log *logger.Logger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{
		code:     code,
		endpoint: endpoint,
		store:    store,
		exec:     exec,
		margin:   defaultSafetyMargin,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) key(channelID string) string {
	return fmt.Sprintf("%s:token:%s", m.code, channelID)
}

// AccessToken devuelve un access token usable para el canal. Si el cacheado
// sigue válido más allá del margen lo reutiliza; si hay refresh token hace un
// único refresh (single-flight); si no hay credenciales falla con
// ErrNoCredentials (se requiere el bootstrap con código de autorización).
func (m *Manager) AccessToken(ctx context.Context, channelID string) (string, error) {
	key := m.key(channelID)

	state, err := m.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("leer token del cache: %w", err)
	}
	if state.Valid(m.now(), m.margin) {
		return state.AccessToken, nil
	}
	if state == nil || state.RefreshToken == "" {
		return "", fmt.Errorf("%w: %s canal %s", provider.ErrNoCredentials, m.code, channelID)
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		// Doble verificación: otro caller pudo completar el refresh mientras
		// esta goroutine esperaba su turno.
		if cached, gerr := m.store.Get(ctx, key); gerr == nil && cached.Valid(m.now(), m.margin) {
			return cached, nil
		}
		return m.refresh(ctx, key, state.RefreshToken)
	})
	if err != nil {
		return "", err
	}
	return v.(*State).AccessToken, nil
}

// ExchangeAuthorizationCode bootstrap único del canal: cambia el código de
// autorización por el primer par de tokens (NoToken → Authorized) y lo persiste.
func (m *Manager) ExchangeAuthorizationCode(ctx context.Context, channelID, code string) (*State, error) {
	if code == "" {
		return nil, fmt.Errorf("código de autorización vacío")
	}
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {m.endpoint.ClientID},
		"client_secret": {m.endpoint.ClientSecret},
	}
	state, err := m.requestToken(ctx, m.key(channelID), form)
	if err != nil {
		return nil, fmt.Errorf("intercambiar código de autorización: %w", err)
	}
	return state, nil
}

// Invalidate descarta el token cacheado del canal (lo invoca el ejecutor ante
// un 401 para forzar la re-autenticación del siguiente intento).
func (m *Manager) Invalidate(ctx context.Context, channelID string) error {
	return m.store.Delete(ctx, m.key(channelID))
}

// refresh ejecuta el grant refresh_token y actualiza el cache. Cualquier fallo
// sale como ErrAuth: el caller lo trata como llamada no autenticada, nunca
// como pánico.
func (m *Manager) refresh(ctx context.Context, key, refreshToken string) (*State, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {m.endpoint.ClientID},
		"client_secret": {m.endpoint.ClientSecret},
	}
	state, err := m.requestToken(ctx, key, form)
	if err != nil {
		if isAuthRejection(err) {
			// Credenciales invalidadas por el proveedor: descartar el estado.
			if derr := m.store.Delete(ctx, key); derr != nil {
				m.log.Warn().Err(derr).Str("key", key).Msg("descartar token invalidado")
			}
		}
		if errors.Is(err, provider.ErrAuth) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: refresh: %v", provider.ErrAuth, err)
	}
	return state, nil
}

// tokenResponse respuesta estándar del endpoint OAuth.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// requestToken llama al endpoint de tokens a través del ejecutor (hereda
// timeout, reintentos 429 y manejo de errores) y persiste el resultado con
// TTL = expires_in, de modo que el cache externo expire solo las entradas caducas.
func (m *Manager) requestToken(ctx context.Context, key string, form url.Values) (*State, error) {
	body, err := m.exec.Do(ctx, httpx.Request{
		Build: func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint.TokenURL, strings.NewReader(form.Encode()))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Accept", "application/json")
			return req, nil
		},
	})
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsear respuesta de tokens: %w", err)
	}
	if resp.AccessToken == "" || resp.ExpiresIn <= 0 {
		return nil, fmt.Errorf("respuesta de tokens incompleta")
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	state := &State{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    m.now().Add(ttl),
	}
	if err := m.store.Set(ctx, key, state, ttl); err != nil {
		return nil, fmt.Errorf("guardar token en cache: %w", err)
	}
	return state, nil
}

// isAuthRejection distingue un rechazo de credenciales de un fallo transitorio.
func isAuthRejection(err error) bool {
	if errors.Is(err, provider.ErrAuth) {
		return true
	}
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusForbidden
	}
	return false
}
