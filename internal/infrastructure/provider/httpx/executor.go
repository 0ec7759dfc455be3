package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

const (
	// maxResponseSize tope de lectura del body para no agotar memoria.
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	defaultMaxRetries    = 3
	defaultBaseDelay     = time.Second
	defaultWarnRemaining = 10
)

// Request petición saliente a un proveedor. Build construye un *http.Request
// nuevo en cada intento (el header de autorización puede cambiar tras un 401
// y el body debe ser re-leíble). OnUnauthorized invalida el token cacheado;
// nil = el proveedor no usa tokens y el 401 se reporta directo.
type Request struct {
	Build          func(ctx context.Context) (*http.Request, error)
	OnUnauthorized func(ctx context.Context) error
}

// Executor envuelve cada llamada saliente con la política de reintentos del
// motor: backoff ante 429 con tope, una sola re-autenticación ante 401 (no
// consume presupuesto de reintentos), parsing estructurado del 422 y aviso
// cuando el rate limit restante baja del umbral.
type Executor struct {
	client        *http.Client
	log           *logger.Logger
	maxRetries    int
	baseDelay     time.Duration
	warnRemaining int
	sleep         func(ctx context.Context, d time.Duration) error
}

// Option configura el Executor.
type Option func(*Executor)

// WithMaxRetries fija el tope de reintentos ante 429 y errores de transporte.
func WithMaxRetries(n int) Option {
	return func(e *Executor) { e.maxRetries = n }
}

// WithBaseDelay fija la base del backoff exponencial.
func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) { e.baseDelay = d }
}

// WithWarnRemaining fija el umbral de X-RateLimit-Remaining que dispara el aviso.
func WithWarnRemaining(n int) Option {
	return func(e *Executor) { e.warnRemaining = n }
}

// WithSleep reemplaza la espera real. Para tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = fn }
}

// New construye el ejecutor. client nil = http.DefaultClient (los clientes de
// proveedor pasan siempre uno con timeout acotado).
func New(client *http.Client, log *logger.Logger, opts ...Option) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Nop()
	}
	e := &Executor{
		client:        client,
		log:           log,
		maxRetries:    defaultMaxRetries,
		baseDelay:     defaultBaseDelay,
		warnRemaining: defaultWarnRemaining,
		sleep:         sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do ejecuta la petición aplicando la política completa y devuelve el body
// de la respuesta 2xx.
func (e *Executor) Do(ctx context.Context, req Request) ([]byte, error) {
	return e.do(ctx, req, 0, false)
}

func (e *Executor) do(ctx context.Context, req Request, retryCount int, reauthed bool) ([]byte, error) {
	httpReq, err := req.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("construir petición: %w", err)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		// Error de transporte: transitorio, se reintenta dentro del mismo presupuesto.
		if retryCount >= e.maxRetries {
			return nil, fmt.Errorf("petición al proveedor: %w", err)
		}
		if serr := e.sleep(ctx, e.backoff(retryCount)); serr != nil {
			return nil, serr
		}
		return e.do(ctx, req, retryCount+1, reauthed)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("leer respuesta: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if retryCount >= e.maxRetries {
			return nil, &provider.RateLimitError{RetryAfter: retryAfter}
		}
		delay := e.backoff(retryCount)
		if retryAfter > delay {
			delay = retryAfter
		}
		if serr := e.sleep(ctx, delay); serr != nil {
			return nil, serr
		}
		return e.do(ctx, req, retryCount+1, reauthed)

	case resp.StatusCode == http.StatusUnauthorized:
		// Un único reintento re-autenticado, al mismo retryCount: no cuenta
		// contra el presupuesto de 429.
		if req.OnUnauthorized != nil && !reauthed {
			if ierr := req.OnUnauthorized(ctx); ierr != nil {
				e.log.Warn().Err(ierr).Msg("invalidar token tras 401")
			}
			return e.do(ctx, req, retryCount, true)
		}
		return nil, fmt.Errorf("%w: HTTP 401: %s", provider.ErrAuth, truncate(body))

	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, parseUnprocessable(body)

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		e.checkRateLimit(httpReq, resp)
		return body, nil

	default:
		return nil, &provider.APIError{Status: resp.StatusCode, Message: truncate(body)}
	}
}

// backoff delay exponencial: baseDelay * 2^retryCount.
func (e *Executor) backoff(retryCount int) time.Duration {
	return e.baseDelay << uint(retryCount)
}

// checkRateLimit emite el aviso de observabilidad cuando el cupo restante
// está bajo. No altera el flujo de control.
func (e *Executor) checkRateLimit(req *http.Request, resp *http.Response) {
	raw := resp.Header.Get("X-RateLimit-Remaining")
	if raw == "" {
		return
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	if remaining <= e.warnRemaining {
		e.log.Warn().
			Int("remaining", remaining).
			Str("host", req.URL.Host).
			Str("path", req.URL.Path).
			Msg("rate limit del proveedor cerca de agotarse")
	}
}

// parseRetryAfter interpreta el header Retry-After en segundos.
func parseRetryAfter(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// unprocessablePayload formas habituales del error estructurado de un 422.
type unprocessablePayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseUnprocessable intenta extraer el error estructurado de un 422. Si
// indica referencia duplicada devuelve ErrDuplicateReference para que el
// cliente aplique el fallback de buscar el recurso existente.
func parseUnprocessable(body []byte) error {
	var payload unprocessablePayload
	code := ""
	detail := truncate(body)
	if err := json.Unmarshal(body, &payload); err == nil {
		code = payload.Code
		if code == "" {
			code = payload.Error.Code
		}
		if payload.Message != "" {
			detail = payload.Message
		} else if payload.Error.Message != "" {
			detail = payload.Error.Message
		}
	}

	if isDuplicateReference(code, detail) {
		return fmt.Errorf("%w: %s", provider.ErrDuplicateReference, detail)
	}
	return &provider.UnprocessableError{Code: code, Detail: detail}
}

func isDuplicateReference(code, detail string) bool {
	c := strings.ToLower(code)
	if c == "duplicate_reference" || c == "duplicate" || c == "already_exists" {
		return true
	}
	d := strings.ToLower(detail)
	return strings.Contains(d, "duplicate") || strings.Contains(d, "already exists")
}

// truncate recorta el body para mensajes de error legibles.
func truncate(body []byte) string {
	const max = 300
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// sleepCtx espera d o hasta que el context se cancele.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
