package dto

import "time"

// ShipmentDTO envío creado para un pedido.
type ShipmentDTO struct {
	Provider   string    `json:"provider"`
	TrackingID string    `json:"tracking_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// DispatchFailureDTO grupo de proveedor que no pudo despacharse.
type DispatchFailureDTO struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// DispatchResponse resultado de POST /api/orders/:id/shipments.
type DispatchResponse struct {
	OrderID   string               `json:"order_id"`
	Status    string               `json:"status"`
	Shipments []ShipmentDTO        `json:"shipments"`
	Failures  []DispatchFailureDTO `json:"failures,omitempty"`
}

// TrackingEventDTO evento del historial de un envío.
type TrackingEventDTO struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// ShipmentStatusResponse resultado de GET /api/shipments/:provider/:trackingId.
type ShipmentStatusResponse struct {
	TrackingID string             `json:"tracking_id"`
	Status     string             `json:"status"`
	Location   string             `json:"location"`
	Events     []TrackingEventDTO `json:"events,omitempty"`
}

// OAuthCallbackResponse resultado del intercambio del código de autorización.
type OAuthCallbackResponse struct {
	Provider  string    `json:"provider"`
	ChannelID string    `json:"channel_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
