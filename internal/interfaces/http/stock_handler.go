package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/dto"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/stock"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
)

// StockHandler maneja las peticiones HTTP de stock por bodega (protegido).
type StockHandler struct {
	updateUC *stock.UpdateStockUseCase
	syncUC   *stock.SyncUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(updateUC *stock.UpdateStockUseCase, syncUC *stock.SyncUseCase) *StockHandler {
	return &StockHandler{updateUC: updateUC, syncUC: syncUC}
}

// UpdateStock godoc
// @Summary      Actualizar stock de un producto en una bodega
// @Description  Propaga la cantidad al proveedor de fulfillment y recalcula el
//
//	agregado del producto en la misma transacción.
//
// @Tags         warehouse
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateStockRequest  true  "product_id, warehouse_id, provider, channel_id, sku, quantity"
// @Success      200   {object}  dto.Result{data=dto.UpdateStockResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/warehouse/stock [post]
func (h *StockHandler) UpdateStock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	result, err := h.updateUC.Execute(c.Context(), stock.UpdateStockInput{
		ProductID:    in.ProductID,
		WarehouseID:  in.WarehouseID,
		Provider:     provider.Code(in.Provider),
		ChannelID:    in.ChannelID,
		SKU:          in.SKU,
		Quantity:     in.Quantity,
		Location:     in.Location,
		MinimumStock: in.MinimumStock,
		ReorderPoint: in.ReorderPoint,
		Variants:     in.Variants,
		UserID:       userID,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.Result{Success: true, Data: dto.UpdateStockResponse{
		ProductID:    result.Record.ProductID,
		WarehouseID:  result.Record.WarehouseID,
		Quantity:     result.Record.Quantity,
		CountInStock: result.CountInStock,
		Status:       string(result.Status),
	}})
}

// SyncWarehouse godoc
// @Summary      Registrar un producto en una bodega de proveedor
// @Description  Crea el producto en el proveedor (o reutiliza el existente) y
//
//	trae la cantidad reportada como verdad inicial.
//
// @Tags         warehouse
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncWarehouseRequest  true  "product_id, warehouse_id, provider, channel_id"
// @Success      200   {object}  dto.Result{data=dto.SyncWarehouseResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/warehouse/sync [post]
func (h *StockHandler) SyncWarehouse(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.SyncWarehouseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	result, err := h.syncUC.SyncWithWarehouse(c.Context(), stock.SyncWarehouseInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Provider:    provider.Code(in.Provider),
		ChannelID:   in.ChannelID,
		UserID:      userID,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.Result{Success: true, Data: dto.SyncWarehouseResponse{
		ExternalProductID: result.ExternalProductID,
		Quantity:          result.Quantity,
		CountInStock:      result.CountInStock,
		Status:            string(result.Status),
	}})
}

// SyncProduct godoc
// @Summary      Sincronizar el inventario de un producto con todas sus bodegas
// @Description  Consulta a cada proveedor donde el vendedor tiene canal y
//
//	refresca los registros locales. El fallo de un proveedor no
//	detiene a los demás.
//
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.Result{data=dto.SyncProductResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/sync-inventory [post]
func (h *StockHandler) SyncProduct(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	result, err := h.syncUC.SyncProductInventory(c.Context(), c.Params("id"), userID)
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.SyncProductResponse{
		CountInStock: result.CountInStock,
		Status:       string(result.Status),
	}
	for _, code := range result.Synced {
		resp.Synced = append(resp.Synced, code.String())
	}
	for _, failure := range result.Failures {
		resp.Failed = append(resp.Failed, failure.Provider.String())
	}
	return c.JSON(dto.Result{Success: true, Data: resp})
}
