package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/dto"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/fulfillment"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
)

// FulfillmentHandler maneja el despacho de pedidos y el tracking (protegido).
type FulfillmentHandler struct {
	dispatcher *fulfillment.Dispatcher
	tracker    *fulfillment.Tracker
}

// NewFulfillmentHandler construye el handler.
func NewFulfillmentHandler(dispatcher *fulfillment.Dispatcher, tracker *fulfillment.Tracker) *FulfillmentHandler {
	return &FulfillmentHandler{dispatcher: dispatcher, tracker: tracker}
}

// Dispatch godoc
// @Summary      Despachar un pedido
// @Description  Agrupa las líneas por proveedor, crea los envíos y descuenta
//
//	el stock interno. Un fallo parcial deja el pedido en
//	partially_fulfilled con los envíos que sí se crearon.
//
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      201  {object}  dto.Result{data=dto.DispatchResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/shipments [post]
func (h *FulfillmentHandler) Dispatch(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	orderID := c.Params("id")
	result, err := h.dispatcher.Dispatch(c.Context(), orderID, userID)
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.DispatchResponse{OrderID: orderID, Status: string(result.Status)}
	for _, s := range result.Shipments {
		resp.Shipments = append(resp.Shipments, dto.ShipmentDTO{
			Provider:   s.Provider.String(),
			TrackingID: s.TrackingID,
			Status:     s.Status,
			CreatedAt:  s.CreatedAt,
		})
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, dto.DispatchFailureDTO{
			Provider: f.Provider.String(),
			Error:    f.Err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Result{Success: true, Data: resp})
}

// Track godoc
// @Summary      Consultar el estado de un envío
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        provider    path  string  true  "Código del proveedor (shipbob, 4px)"
// @Param        trackingId  path  string  true  "Tracking del envío"
// @Success      200  {object}  dto.Result{data=dto.ShipmentStatusResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shipments/{provider}/{trackingId} [get]
func (h *FulfillmentHandler) Track(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	trackingID := c.Params("trackingId")
	status, err := h.tracker.Track(c.Context(), userID, provider.Code(c.Params("provider")), trackingID)
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.ShipmentStatusResponse{
		TrackingID: trackingID,
		Status:     status.Status,
		Location:   status.Location,
	}
	for _, ev := range status.Events {
		resp.Events = append(resp.Events, dto.TrackingEventDTO{
			Timestamp:   ev.Timestamp,
			Location:    ev.Location,
			Description: ev.Description,
		})
	}
	return c.JSON(dto.Result{Success: true, Data: resp})
}
