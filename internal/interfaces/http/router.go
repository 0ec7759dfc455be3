package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/fulfillment"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/stock"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	UpdateStockUC *stock.UpdateStockUseCase
	SyncUC        *stock.SyncUseCase
	Dispatcher    *fulfillment.Dispatcher
	Tracker       *fulfillment.Tracker
	TokenManagers map[provider.Code]*token.Manager
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Stock por bodega (protegido)
	stockHandler := NewStockHandler(deps.UpdateStockUC, deps.SyncUC)
	warehouse := protected.Group("/warehouse")
	warehouse.Post("/stock", stockHandler.UpdateStock)
	warehouse.Post("/sync", stockHandler.SyncWarehouse)
	protected.Post("/products/:id/sync-inventory", stockHandler.SyncProduct)

	// Despacho y tracking (protegido)
	fulfillmentHandler := NewFulfillmentHandler(deps.Dispatcher, deps.Tracker)
	protected.Post("/orders/:id/shipments", fulfillmentHandler.Dispatch)
	protected.Get("/shipments/:provider/:trackingId", fulfillmentHandler.Track)

	// Conexión OAuth de canales (protegido)
	oauthHandler := NewOAuthHandler(deps.TokenManagers)
	protected.Get("/integrations/:provider/oauth/callback", oauthHandler.Callback)
}
