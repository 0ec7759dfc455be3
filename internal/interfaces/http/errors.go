package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/dto"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
)

// respondError traduce los errores de dominio y de integración al status y
// código de la API. Los errores de proveedor no exponen el detalle crudo.
func respondError(c *fiber.Ctx, err error) error {
	var rlErr *provider.RateLimitError
	var upErr *provider.UnprocessableError
	var apiErr *provider.APIError

	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, provider.ErrUnknownProvider):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSellerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, provider.ErrInsufficientInventory):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, provider.ErrNoCredentials):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NO_CREDENTIALS", Message: "el canal no está conectado con el proveedor"})
	case errors.Is(err, provider.ErrAuth):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "PROVIDER_AUTH", Message: "el proveedor rechazó la autenticación"})
	case errors.As(err, &rlErr):
		c.Set(fiber.HeaderRetryAfter, rlErr.RetryAfter.String())
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "PROVIDER_RATE_LIMIT", Message: "el proveedor limitó las peticiones, reintentar más tarde"})
	case errors.As(err, &upErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "PROVIDER_UNPROCESSABLE", Message: upErr.Detail})
	case errors.As(err, &apiErr):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "PROVIDER_ERROR", Message: "el proveedor respondió con error"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
