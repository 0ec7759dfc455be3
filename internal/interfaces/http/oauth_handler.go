package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/dto"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
)

// OAuthHandler conecta canales de vendedor con los proveedores que usan OAuth.
type OAuthHandler struct {
	managers map[provider.Code]*token.Manager
}

// NewOAuthHandler construye el handler con los gestores de token por proveedor.
func NewOAuthHandler(managers map[provider.Code]*token.Manager) *OAuthHandler {
	return &OAuthHandler{managers: managers}
}

// Callback godoc
// @Summary      Callback OAuth del proveedor
// @Description  Cambia el código de autorización por el primer par de tokens
//
//	del canal y lo deja en el cache compartido.
//
// @Tags         integrations
// @Security     Bearer
// @Produce      json
// @Param        provider    path   string  true  "Código del proveedor (shipbob)"
// @Param        code        query  string  true  "Código de autorización"
// @Param        channel_id  query  string  true  "Canal del vendedor en el proveedor"
// @Success      200  {object}  dto.Result{data=dto.OAuthCallbackResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/integrations/{provider}/oauth/callback [get]
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	code := provider.Code(c.Params("provider"))
	manager, ok := h.managers[code]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el proveedor no usa OAuth o no existe"})
	}

	channelID := c.Query("channel_id")
	authCode := c.Query("code")
	if channelID == "" || authCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "code y channel_id requeridos"})
	}

	state, err := manager.ExchangeAuthorizationCode(c.Context(), channelID, authCode)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.Result{Success: true, Data: dto.OAuthCallbackResponse{
		Provider:  code.String(),
		ChannelID: channelID,
		ExpiresAt: state.ExpiresAt,
	}})
}
