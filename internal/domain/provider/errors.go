package provider

import (
	"errors"
	"fmt"
	"time"
)

// Errores de integración con proveedores.
var (
	// ErrDuplicateReference el proveedor ya tiene un recurso con esa referencia
	// externa (típico tras un reintento cuyo primer intento sí llegó). Los
	// clientes lo resuelven con el fallback de buscar el recurso existente;
	// no debe llegar al caller final.
	ErrDuplicateReference = errors.New("provider: referencia externa duplicada")
	// ErrAuth la autenticación con el proveedor fue rechazada tras agotar el
	// único reintento de re-autenticación.
	ErrAuth = errors.New("provider: autenticación rechazada")
	// ErrNoCredentials no existe token ni refresh token para el canal; se
	// requiere el bootstrap con código de autorización.
	ErrNoCredentials = errors.New("provider: sin credenciales para el canal")
	// ErrInsufficientInventory la bodega no tiene unidades suficientes de un
	// SKU en la verificación just-in-time previa al envío.
	ErrInsufficientInventory = errors.New("provider: inventario insuficiente en bodega")
	// ErrUnknownProvider el código de proveedor no está en el registro.
	ErrUnknownProvider = errors.New("provider: proveedor no registrado")
)

// RateLimitError se agotaron los reintentos ante HTTP 429.
type RateLimitError struct {
	RetryAfter time.Duration // valor del último Retry-After recibido
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider: límite de peticiones excedido, reintentar en %s", e.RetryAfter)
}

// UnprocessableError HTTP 422 con error estructurado que no es referencia duplicada.
type UnprocessableError struct {
	Code   string
	Detail string
}

func (e *UnprocessableError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider: entidad no procesable (%s): %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("provider: entidad no procesable: %s", e.Detail)
}

// APIError cualquier otra respuesta no-2xx del proveedor.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider: HTTP %d: %s", e.Status, e.Message)
}
